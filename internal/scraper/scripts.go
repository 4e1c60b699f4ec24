package scraper

// The in-page scripts below are the rendering-engine half of the loop:
// scrolling, expanding truncated blocks, and pulling the current content
// blocks out of the DOM.

const scrollScript = `window.scrollBy(0, window.innerHeight * 2)`

// expandScript clicks every visible "see more"-style button so truncated
// block text is present before collection. The pattern list includes the
// localized variants observed in the wild.
const expandScript = `(() => {
	const patterns = [
		"see more",
		"show more",
		"read more",
		"load more",
		"show full post",
		"see translation",
		"और देखें",
	];
	document
		.querySelectorAll('div[role="button"], span[role="button"]')
		.forEach((btn) => {
			const txt = (btn.innerText || "").toLowerCase();
			const aria = (btn.getAttribute("aria-label") || "").toLowerCase();
			if (patterns.some((p) => txt.includes(p) || aria.includes(p))) {
				try { btn.click(); } catch {}
			}
		});
})()`

// collectScript returns the text and markup of every content block currently
// rendered. Author attribution happens on the Go side.
const collectScript = `(() => {
	const nodes = Array.from(
		document.querySelectorAll('div[role="article"], div[data-ad-preview="message"]')
	);
	return nodes.map((node) => ({
		text: node.innerText || "",
		html: node.outerHTML || "",
	}));
})()`

// loginMarkerScript detects a login form on the landing page.
const loginMarkerScript = `(() =>
	document.querySelector("input[name='email']") !== null ||
	document.querySelector("button[name='login']") !== null
)()`
