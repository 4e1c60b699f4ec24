package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCookies(t *testing.T) {
	err := ValidateCookies([]byte(`[
		{"name":"c_user","value":"100001","domain":".example.com","secure":true,"httpOnly":true},
		{"name":"xs","value":"abc"}
	]`))
	assert.NoError(t, err)
}

func TestValidateCookiesEmptyArray(t *testing.T) {
	assert.NoError(t, ValidateCookies([]byte(`[]`)))
}

func TestValidateCookiesExtraAttributes(t *testing.T) {
	// exporter-specific attributes pass through unvalidated
	assert.NoError(t, ValidateCookies([]byte(`[{"name":"a","value":"b","session":false,"storeId":"0"}]`)))
}

func TestValidateCookiesRejectsNonArray(t *testing.T) {
	err := ValidateCookies([]byte(`{"name":"a","value":"b"}`))
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateCookiesIncompleteEntriesAreShapeValid(t *testing.T) {
	// entries missing a name or value are dropped downstream, not rejected
	assert.NoError(t, ValidateCookies([]byte(`[{"name":"a"}]`)))
	assert.NoError(t, ValidateCookies([]byte(`[{"name":"","value":"b"}]`)))
}

func TestValidateCookiesRejectsMistypedAttributes(t *testing.T) {
	require.Error(t, ValidateCookies([]byte(`[{"name":1,"value":"b"}]`)))
	require.Error(t, ValidateCookies([]byte(`[{"name":"a","value":"b","secure":"yes"}]`)))
	require.Error(t, ValidateCookies([]byte(`[{"name":"a","value":"b","expirationDate":"soon"}]`)))
}

func TestValidateCookiesMalformedJSON(t *testing.T) {
	assert.Error(t, ValidateCookies([]byte(`[{"name":`)))
}
