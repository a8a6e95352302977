package handler

import (
	"custodial-wallet/internal/adapter/http/dto"
	"custodial-wallet/internal/core/domain"
	"custodial-wallet/internal/core/ports"
	"custodial-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KeyHandler exposes key provisioning. Key material never leaves custody;
// only the public address is returned.
type KeyHandler struct {
	custody ports.CustodyService
}

func NewKeyHandler(custody ports.CustodyService) *KeyHandler {
	return &KeyHandler{custody: custody}
}

// Provision handles POST /api/v1/keys.
func (h *KeyHandler) Provision(c *gin.Context) {
	var req dto.ProvisionKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validation(err))
		return
	}

	address, err := h.custody.ProvisionKey(c.Request.Context(), uuid.MustParse(req.OwnerID), domain.ChainFamily(req.ChainFamily))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ProvisionKeyResponse{
		OwnerID:     req.OwnerID,
		ChainFamily: req.ChainFamily,
		Address:     address,
	})
}
