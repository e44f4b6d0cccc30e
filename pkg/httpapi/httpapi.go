// Package httpapi implements the HTTP Surface (C9): the REST routes that
// reuse the analytical store (C3) and the filter builder (C8), and
// map the error taxonomy (§7) onto status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/solana-zh/pulsefeed/pkg/filter"
	"github.com/solana-zh/pulsefeed/pkg/model"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

// Store is the subset of store.Client the HTTP surface depends on.
type Store interface {
	Search(ctx context.Context, query string) ([]model.PoolAndToken, error)
	Candlestick(ctx context.Context, poolAddress, interval string, start, end time.Time, limit int) ([]model.OHLCV, error)
	PairInfo(ctx context.Context, poolAddress string) (*model.PairInfo, error)
	TopTraders(ctx context.Context, poolAddress string) ([]model.TopTrader, error)
	Holders(ctx context.Context, tokenAddress string) ([]model.Holder, error)
	Trades(ctx context.Context, poolAddress string, start, end time.Time) ([]model.Swap, error)
	LastTransaction(ctx context.Context, poolAddress string) (*model.Swap, error)
	PoolReport(ctx context.Context, poolAddress string, reportType model.ReportType) ([]model.PoolReport, error)
	Pulse(ctx context.Context, q store.PulseQuery) ([]model.PulseDataResponse, error)
	TokenInfo(ctx context.Context, poolAddress string) (*model.TokenInfo, error)
	TraderDetails(ctx context.Context, poolAddress, makerAddress string) (*model.TopTrader, error)
	Portfolio(ctx context.Context, walletAddress string) ([]model.PortfolioEntry, error)
}

// api holds the dependencies shared by every handler.
type api struct {
	store Store
	log   *logrus.Entry
}

// Register mounts every route spec.md §4.9 names, plus the supplemented
// /portfolio and /search routes, on e.
func Register(e *echo.Echo, s Store, log *logrus.Logger) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	a := &api{store: s, log: log.WithField("component", "httpapi")}
	e.HTTPErrorHandler = a.errorHandler

	e.GET("/", a.hello)
	e.GET("/pools", a.pools)
	e.GET("/candlestick", a.candlestick)
	e.GET("/pair-info/:pool_address", a.pairInfo)
	e.GET("/top-traders/:pool_address", a.topTraders)
	e.GET("/holders/:token_address", a.holders)
	e.GET("/trades", a.trades)
	e.GET("/get-last-transaction/:pool_address", a.lastTransaction)
	e.GET("/pool-report", a.poolReport)
	e.POST("/pulse", a.pulse)
	e.GET("/token-info/:pool_address", a.tokenInfo)
	e.GET("/trader-details", a.traderDetails)
	e.GET("/portfolio/:wallet_address", a.portfolio)
	e.GET("/search", a.search)
}

func (a *api) hello(c echo.Context) error {
	return c.String(http.StatusOK, "Hello, World!")
}

func (a *api) pools(c echo.Context) error {
	out, err := a.store.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) search(c echo.Context) error {
	out, err := a.store.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) candlestick(c echo.Context) error {
	poolAddress := c.QueryParam("pool_address")
	interval := c.QueryParam("interval")
	limit, err := parseIntOrDefault(c.QueryParam("limit"), 200)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	end, err := parseTimeOrDefault(c.QueryParam("end_time"), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_time")
	}
	start, err := parseTimeOrDefault(c.QueryParam("start_time"), end.Add(-24*time.Hour))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start_time")
	}

	out, err := a.store.Candlestick(c.Request().Context(), poolAddress, interval, start, end, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) pairInfo(c echo.Context) error {
	out, err := a.store.PairInfo(c.Request().Context(), c.Param("pool_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) topTraders(c echo.Context) error {
	out, err := a.store.TopTraders(c.Request().Context(), c.Param("pool_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) holders(c echo.Context) error {
	out, err := a.store.Holders(c.Request().Context(), c.Param("token_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) trades(c echo.Context) error {
	poolAddress := c.QueryParam("pool_address")
	end, err := parseTimeOrDefault(c.QueryParam("end_date"), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
	}
	start, err := parseTimeOrDefault(c.QueryParam("start_date"), end.Add(-24*time.Hour))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
	}
	out, err := a.store.Trades(c.Request().Context(), poolAddress, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) lastTransaction(c echo.Context) error {
	out, err := a.store.LastTransaction(c.Request().Context(), c.Param("pool_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) poolReport(c echo.Context) error {
	reportType := model.ReportType(c.QueryParam("report_type"))
	if !reportType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid report_type")
	}
	out, err := a.store.PoolReport(c.Request().Context(), c.QueryParam("pool_address"), reportType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) pulse(c echo.Context) error {
	var pf filter.PulseFilter
	if err := c.Bind(&pf); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed pulse filter")
	}
	q, err := filter.Build(pf)
	if err != nil {
		return err
	}
	pools, err := a.store.Pulse(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"pools": pools})
}

func (a *api) tokenInfo(c echo.Context) error {
	out, err := a.store.TokenInfo(c.Request().Context(), c.Param("pool_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) traderDetails(c echo.Context) error {
	out, err := a.store.TraderDetails(c.Request().Context(), c.QueryParam("poolAddress"), c.QueryParam("makerAddress"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (a *api) portfolio(c echo.Context) error {
	out, err := a.store.Portfolio(c.Request().Context(), c.Param("wallet_address"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// errorHandler maps the error taxonomy (spec.md §7) onto status codes:
// ParseError/FilterError -> 400, StoreError::MissingRow -> 404,
// StoreError::{Transport,Decode} -> 500.
func (a *api) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		return
	}

	var parseErr *model.ParseError
	var filterErr *filter.FilterError
	var storeErr *store.StoreError
	switch {
	case errors.As(err, &parseErr):
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": parseErr.Error()})
	case errors.As(err, &filterErr):
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": filterErr.Error()})
	case errors.As(err, &storeErr) && storeErr.Kind == store.ErrMissingRow:
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		a.log.WithError(err).WithField("path", c.Path()).Error("httpapi: unhandled error")
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func parseIntOrDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func parseTimeOrDefault(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, s)
}
