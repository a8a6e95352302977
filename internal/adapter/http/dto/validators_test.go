package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDepositRequest_Validation(t *testing.T) {
	valid := func() DepositRequest {
		return DepositRequest{
			OwnerID:   "6f1c2a51-3b0e-4a84-9d3e-0c2f5a9a7b11",
			Currency:  "PI",
			Amount:    decimal.NewFromInt(10),
			Reference: "0xabc123",
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *DepositRequest)
		wantErr bool
	}{
		{"valid", func(r *DepositRequest) {}, false},
		{"provider id with colon", func(r *DepositRequest) { r.Reference = "stripe:pi_3Nx.1" }, false},
		{"missing reference", func(r *DepositRequest) { r.Reference = "" }, true},
		{"reference with space", func(r *DepositRequest) { r.Reference = "a b" }, true},
		{"reference with markup", func(r *DepositRequest) { r.Reference = "<script>" }, true},
		{"bad owner", func(r *DepositRequest) { r.OwnerID = "owner-1" }, true},
		{"bad currency", func(r *DepositRequest) { r.Currency = "P$" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := binding.Validator.ValidateStruct(&req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithdrawalRequest_ReferenceOptional(t *testing.T) {
	req := WithdrawalRequest{
		OwnerID:         "6f1c2a51-3b0e-4a84-9d3e-0c2f5a9a7b11",
		Currency:        "BTC",
		Amount:          decimal.RequireFromString("0.001"),
		ExternalAddress: "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn",
	}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))

	req.ExternalAddress = ""
	assert.Error(t, binding.Validator.ValidateStruct(&req))
}

func TestProvisionKeyRequest_Family(t *testing.T) {
	req := ProvisionKeyRequest{OwnerID: "6f1c2a51-3b0e-4a84-9d3e-0c2f5a9a7b11", ChainFamily: "evm"}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))

	req.ChainFamily = "tron"
	assert.Error(t, binding.Validator.ValidateStruct(&req))
}
