package handler

import (
	"strings"

	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/apperror"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves read models.
type AccountHandler struct {
	reporting ports.ReportingService
	adapters  ports.AdapterRegistry
}

func NewAccountHandler(reporting ports.ReportingService, adapters ports.AdapterRegistry) *AccountHandler {
	return &AccountHandler{reporting: reporting, adapters: adapters}
}

// Overview handles GET /api/v1/accounts/:owner_id.
func (h *AccountHandler) Overview(c *gin.Context) {
	ownerID, ok := pathUUID(c, "owner_id")
	if !ok {
		return
	}

	overview, err := h.reporting.AccountOverview(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.AccountResponse{
		OwnerID: overview.OwnerID.String(),
		Wallets: make([]dto.WalletResponse, 0, len(overview.Wallets)),
		Keys:    make(map[string]string, len(overview.Keys)),
	}
	for _, w := range overview.Wallets {
		resp.Wallets = append(resp.Wallets, dto.WalletResponse{
			ID:           w.ID.String(),
			Currency:     w.Currency,
			Balance:      w.Balance.String(),
			ChainAddress: w.ChainAddress,
		})
	}
	for _, k := range overview.Keys {
		resp.Keys[string(k.Family)] = k.Address
	}
	response.OK(c, resp)
}

// FeeEstimate handles GET /api/v1/fees/:currency with the chain's current
// network fee. Ledger operations charge the snapshot fee, not this value.
func (h *AccountHandler) FeeEstimate(c *gin.Context) {
	currency := strings.ToUpper(c.Param("currency"))

	adapter, err := h.adapters.ForCurrency(currency)
	if err != nil {
		response.Error(c, err)
		return
	}
	fee, err := adapter.EstimateFee(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrBroadcastFailure(err))
		return
	}
	response.OK(c, dto.FeeEstimateResponse{Currency: currency, Fee: fee.String()})
}
