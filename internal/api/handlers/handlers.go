package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-hwsigner/internal/api"
	"github/chapool/go-hwsigner/internal/api/handlers/common"
	"github/chapool/go-hwsigner/internal/api/handlers/ledger"
)

// AttachAllRoutes registers every handler of the service on s.Router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
		ledger.GetAddressRoute(s),
		ledger.GetAddressesRoute(s),
		ledger.GetPublicKeyRoute(s),
		ledger.GetVersionRoute(s),
		ledger.PostSignTransactionRoute(s),
	}
}
