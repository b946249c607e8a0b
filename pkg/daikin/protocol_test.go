package daikin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture captured from a BRP069 adapter.
const basicInfoBody = "ret=OK,type=aircon,reg=eu,dst=1,ver=1_2_51,rev=D3A0C9F,pow=1,err=0," +
	"location=0,name=%79%6c%c3%a4%61%75%6c%61,icon=0,method=home only,port=30050,id=,pw=," +
	"lpw_flag=0,adp_kind=3,pv=2,cpv=2,cpv_minor=00,led=1,en_setzone=1,mac=D0C5D3042E82," +
	"adp_mode=run,en_hol=0,grp_name=,en_grp=0"

func TestParseResponse_BasicInfo(t *testing.T) {
	f, err := ParseResponse([]byte(basicInfoBody))
	require.NoError(t, err)

	assert.Equal(t, "OK", f["ret"])
	assert.Equal(t, "aircon", f["type"])
	assert.Equal(t, "home only", f["method"])
	assert.Equal(t, "D0C5D3042E82", f["mac"])

	// name is percent-escaped byte-wise, UTF-8 underneath
	assert.Equal(t, "yläaula", f["name"])

	// empty values survive as empty strings
	pw, ok := f.Get("pw")
	assert.True(t, ok)
	assert.Equal(t, "", pw)
}

func TestParseResponse_EscapedWifiKey(t *testing.T) {
	body := "ret=OK,ssid=wireless_ssid,security=mixed,key=%77%69%66%69%6b%65%79,link=1"
	f, err := ParseResponse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "wifikey", f["key"])
}

func TestParseResponse_AdapterError(t *testing.T) {
	_, err := ParseResponse([]byte("ret=NG,msg=404 Not Found"))
	assert.ErrorIs(t, err, ErrAdapterError)

	_, err = ParseResponse([]byte("ret=PARAM NG"))
	assert.ErrorIs(t, err, ErrAdapterError)
}

func TestParseResponse_NotAnAdapter(t *testing.T) {
	_, err := ParseResponse([]byte("<html>not a daikin</html>"))
	assert.ErrorIs(t, err, ErrBadResponse)

	_, err = ParseResponse([]byte(""))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestParseResponse_BadEscape(t *testing.T) {
	_, err := ParseResponse([]byte("ret=OK,name=%zz"))
	assert.ErrorIs(t, err, ErrBadResponse)

	_, err = ParseResponse([]byte("ret=OK,name=abc%4"))
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestFields_TypedGetters(t *testing.T) {
	f := Fields{"pow": "1", "mode": "4", "stemp": "21.0", "otemp": "-", "hhum": "--", "err": "0"}

	on, err := f.Bool("pow")
	require.NoError(t, err)
	assert.True(t, on)

	n, err := f.Int("mode")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	x, err := f.Float("stemp")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, x, 0.001)

	// dash placeholders are unavailable, not parse failures
	_, err = f.Float("otemp")
	assert.ErrorIs(t, err, ErrValueUnavailable)
	_, err = f.Float("hhum")
	assert.ErrorIs(t, err, ErrValueUnavailable)

	// missing keys too
	_, err = f.Str("nosuch")
	assert.ErrorIs(t, err, ErrValueUnavailable)
}

func TestFields_NegativeFloatIsNotUnavailable(t *testing.T) {
	f := Fields{"otemp": "-7.0"}
	x, err := f.Float("otemp")
	require.NoError(t, err)
	assert.InDelta(t, -7.0, x, 0.001)
}

func TestPercentEncode(t *testing.T) {
	// the adapter wants every byte escaped, even plain ASCII
	assert.Equal(t, "%77%69%66%69%6b%65%79", percentEncode("wifikey"))
	assert.Equal(t, "", percentEncode(""))
}

func TestPercentRoundTrip(t *testing.T) {
	for _, s := range []string{"wifikey", "yläaula", "with space", "a%b"} {
		decoded, err := percentDecode(percentEncode(s))
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}
}
