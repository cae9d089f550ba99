// README: Wallet handlers for balance, recharge creation, and the gateway callback.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabdesk/internal/http/middleware"
	"cabdesk/internal/modules/wallet"
	"cabdesk/internal/types"
)

type WalletHandler struct {
	wallet *wallet.Service
}

func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{wallet: svc}
}

func walletJSON(w *wallet.Wallet) map[string]any {
	return map[string]any{
		"owner_id": w.OwnerID,
		"balance":  w.Balance.Amount,
		"currency": w.Balance.Currency,
	}
}

// Get returns the caller's own wallet (vendor balance or driver earnings).
func (h *WalletHandler) Get(c *gin.Context) {
	role := middleware.CallerRole(c)
	if role != "vendor" && role != "driver" {
		writeError(c, http.StatusForbidden, "forbidden: vendor or driver role required")
		return
	}
	w, err := h.wallet.Get(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeWalletError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, walletJSON(w))
}

type createRechargeReq struct {
	Amount int64 `json:"amount"`
}

func (h *WalletHandler) CreateRecharge(c *gin.Context) {
	if middleware.CallerRole(c) != "vendor" {
		writeError(c, http.StatusForbidden, "forbidden: vendor role required")
		return
	}
	var req createRechargeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.wallet.CreateRecharge(c.Request.Context(), types.ID(middleware.CallerUID(c)), req.Amount)
	if err != nil {
		writeWalletError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{
		"order_id": o.ID,
		"amount":   o.Amount,
		"pay_url":  o.PayURL,
	})
}

type verifyRechargeReq struct {
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

// VerifyRecharge is the gateway's result callback; it is authenticated
// by signature, not by session, and is safe to replay.
func (h *WalletHandler) VerifyRecharge(c *gin.Context) {
	var req verifyRechargeReq
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		writeError(c, http.StatusBadRequest, "missing order_id")
		return
	}
	w, err := h.wallet.ConfirmRecharge(c.Request.Context(), types.ID(req.OrderID), req.Signature)
	if err != nil {
		writeWalletError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, walletJSON(w))
}
