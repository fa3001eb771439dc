package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codir/internal/scraper"
)

func TestParseRequest(t *testing.T) {
	req, err := scraper.ParseRequest([]byte(`{"count": 3, "filters": {"industry": "Fintech", "batch": ["W21", "S21"], "isHiring": true}}`))
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	assert.Equal(t, 3, req.Count)
	assert.Equal(t, "batch=W21&batch=S21&industry=Fintech&isHiring=true", req.Query())
}

func TestParseRequestAcceptsN(t *testing.T) {
	req, err := scraper.ParseRequest([]byte(`{"n": 1, "filters": {"industry": "tech"}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, req.Count)
	assert.Equal(t, "industry=tech", req.Query())
}

func TestParseRequestNestedFilters(t *testing.T) {
	req, err := scraper.ParseRequest([]byte(`{"count": 1, "filters": {"team": {"min": 1, "max": 10}}}`))
	require.NoError(t, err)
	assert.Equal(t, "team%5Bmax%5D=10&team%5Bmin%5D=1", req.Query())
}

func TestParseRequestWithoutFilters(t *testing.T) {
	req, err := scraper.ParseRequest([]byte(`{"count": 2}`))
	require.NoError(t, err)
	assert.Empty(t, req.Query())
}

func TestParseRequestMalformed(t *testing.T) {
	for _, payload := range []string{
		`{"n": 1, "filters": {"industry": "tech"`,
		`not json`,
		`[1, 2]`,
		`{"count": 1} {"count": 2}`,
		`{"count": 1, "filters": "tech"}`,
	} {
		_, err := scraper.ParseRequest([]byte(payload))
		require.Error(t, err, payload)
		assert.True(t, scraper.IsKind(err, scraper.KindInput), payload)
		assert.Equal(t, scraper.MsgInvalidJSON, scraper.Message(err), payload)
	}
}

func TestValidateRejectsNonPositiveCount(t *testing.T) {
	for _, payload := range []string{
		`{"n": 0, "filters": {"industry": "tech"}}`,
		`{"count": -4}`,
		`{"filters": {}}`,
		`{"count": null}`,
		`{"count": 1.5}`,
		`{}`,
	} {
		req, err := scraper.ParseRequest([]byte(payload))
		require.NoError(t, err, payload)

		err = req.Validate()
		require.Error(t, err, payload)
		assert.Equal(t, scraper.MsgInvalidCount, scraper.Message(err), payload)
	}
}

func TestParseRequestIntegralFloatCount(t *testing.T) {
	for payload, want := range map[string]int{
		`{"count": 5.0}`: 5,
		`{"n": 2e1}`:     20,
		`{"count": 3}`:   3,
	} {
		req, err := scraper.ParseRequest([]byte(payload))
		require.NoError(t, err, payload)
		require.NoError(t, req.Validate(), payload)
		assert.Equal(t, want, req.Count, payload)
	}
}
