package rates

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
	<soap:Body>
		<KeyRateResponse xmlns="http://web.cbr.ru/">
			<KeyRateResult>
				<diffgram>
					<KeyRate>
						<KR><DT>2026-08-28T00:00:00+03:00</DT><Rate>16.00</Rate></KR>
						<KR><DT>2026-08-27T00:00:00+03:00</DT><Rate>17.00</Rate></KR>
					</KeyRate>
				</diffgram>
			</KeyRateResult>
		</KeyRateResponse>
	</soap:Body>
</soap:Envelope>`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestParseXMLResponseTakesLatestRate(t *testing.T) {
	c := NewClient("", testLogger())
	rate, err := c.parseXMLResponse([]byte(sampleResponse))
	require.NoError(t, err)
	assert.Equal(t, 16.00, rate)
}

func TestParseXMLResponseRejectsEmptyFeed(t *testing.T) {
	c := NewClient("", testLogger())
	_, err := c.parseXMLResponse([]byte(`<diffgram></diffgram>`))
	assert.Error(t, err)
}

func TestLoanRateAddsMarginAndCaches(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	rate, err := c.LoanRate()
	require.NoError(t, err)
	assert.Equal(t, 16.00+bankMargin, rate)

	again, err := c.LoanRate()
	require.NoError(t, err)
	assert.Equal(t, rate, again)
	assert.Equal(t, 1, calls, "second call inside the TTL must hit the cache")
}

func TestLoanRatePropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testLogger())
	_, err := c.LoanRate()
	assert.Error(t, err)
}
