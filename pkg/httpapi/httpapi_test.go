package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

type fakeStore struct {
	pairInfo      *model.PairInfo
	pairInfoErr   error
	lastTxn       *model.Swap
	lastTxnErr    error
	search        []model.PoolAndToken
	pulseRows     []model.PulseDataResponse
}

func (f *fakeStore) Search(ctx context.Context, query string) ([]model.PoolAndToken, error) {
	return f.search, nil
}
func (f *fakeStore) Candlestick(ctx context.Context, poolAddress, interval string, start, end time.Time, limit int) ([]model.OHLCV, error) {
	return nil, nil
}
func (f *fakeStore) PairInfo(ctx context.Context, poolAddress string) (*model.PairInfo, error) {
	return f.pairInfo, f.pairInfoErr
}
func (f *fakeStore) TopTraders(ctx context.Context, poolAddress string) ([]model.TopTrader, error) {
	return nil, nil
}
func (f *fakeStore) Holders(ctx context.Context, tokenAddress string) ([]model.Holder, error) {
	return nil, nil
}
func (f *fakeStore) Trades(ctx context.Context, poolAddress string, start, end time.Time) ([]model.Swap, error) {
	return nil, nil
}
func (f *fakeStore) LastTransaction(ctx context.Context, poolAddress string) (*model.Swap, error) {
	return f.lastTxn, f.lastTxnErr
}
func (f *fakeStore) PoolReport(ctx context.Context, poolAddress string, reportType model.ReportType) ([]model.PoolReport, error) {
	return nil, nil
}
func (f *fakeStore) Pulse(ctx context.Context, q store.PulseQuery) ([]model.PulseDataResponse, error) {
	return f.pulseRows, nil
}
func (f *fakeStore) TokenInfo(ctx context.Context, poolAddress string) (*model.TokenInfo, error) {
	return nil, nil
}
func (f *fakeStore) TraderDetails(ctx context.Context, poolAddress, makerAddress string) (*model.TopTrader, error) {
	return nil, nil
}
func (f *fakeStore) Portfolio(ctx context.Context, walletAddress string) ([]model.PortfolioEntry, error) {
	return nil, nil
}

func newTestEcho(s Store) *echo.Echo {
	e := echo.New()
	Register(e, s, nil)
	return e
}

func TestHelloRoute(t *testing.T) {
	e := newTestEcho(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hello, World!", rec.Body.String())
}

func TestLastTransactionMissingRowMapsTo404(t *testing.T) {
	e := newTestEcho(&fakeStore{lastTxnErr: &store.StoreError{Kind: store.ErrMissingRow}})
	req := httptest.NewRequest(http.MethodGet, "/get-last-transaction/somepool", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPairInfoTransportErrorMapsTo500(t *testing.T) {
	e := newTestEcho(&fakeStore{pairInfoErr: &store.StoreError{Kind: store.ErrTransport}})
	req := httptest.NewRequest(http.MethodGet, "/pair-info/somepool", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPulseRejectsOutOfBoundsFilterWith400(t *testing.T) {
	e := newTestEcho(&fakeStore{})
	body := `{"table":"NewPairs","filters":{"top10":{"max":200}}}`
	req := httptest.NewRequest(http.MethodPost, "/pulse", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPulseReturnsPoolsWrapper(t *testing.T) {
	e := newTestEcho(&fakeStore{pulseRows: []model.PulseDataResponse{{PairAddress: "p1"}}})
	req := httptest.NewRequest(http.MethodPost, "/pulse", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pools"`)
}

func TestCandlestickRejectsInvalidLimit(t *testing.T) {
	e := newTestEcho(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/candlestick?pool_address=p&interval=1m&limit=notanumber", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
