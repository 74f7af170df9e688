package admin

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"github.com/admin/tg-bots/stars-bot/internal/ports/storage"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase"
	"github.com/gin-gonic/gin"
)

const (
	tokenHeader      = "X-Admin-Token"
	receiptURLExpiry = 15 * time.Minute
	defaultListLimit = 50
	maxListLimit     = 500
)

type Config struct {
	Token string `envconfig:"TOKEN"` // пустой - админские ручки не регистрируются
}

type Controller struct {
	Ledger   repository.ILedgerStore
	Receipts storage.IS3Client // nil - без ссылок на чеки
	Token    string
	Log      *slog.Logger
}

func New(
	ledger repository.ILedgerStore,
	receipts storage.IS3Client,
	token string,
	log *slog.Logger,
) *Controller {
	return &Controller{
		Ledger:   ledger,
		Receipts: receipts,
		Token:    token,
		Log:      log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	if c.Token == "" {
		c.Log.Info("admin token is not set, admin routes disabled")
		return
	}

	admin := router.Group("/admin", c.authorize)
	{
		admin.GET("/transactions", c.listTransactions)
		admin.GET("/transactions/:invoice_id", c.getTransaction)
		admin.GET("/transactions/:invoice_id/receipt", c.getReceipt)
		admin.GET("/users/:id", c.getUser)
		admin.GET("/users/:id/receipts", c.listReceipts)
	}
}

func (c *Controller) authorize(ctx *gin.Context) {
	token := ctx.GetHeader(tokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.Token)) != 1 {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx.Next()
}

// TransactionResponse транзакция и ссылка на чек, если он сохранён
type TransactionResponse struct {
	*domain.Transaction
	ReceiptURL string `json:"receipt_url,omitempty"`
}

func (c *Controller) getTransaction(ctx *gin.Context) {
	invoiceID := ctx.Param("invoice_id")

	tx, err := c.Ledger.GetByInvoiceID(ctx.Request.Context(), invoiceID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err != nil {
		c.Log.Error("failed to get transaction", "error", err, "invoice_id", invoiceID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := TransactionResponse{Transaction: tx}
	if c.Receipts != nil && tx.Status.IsTerminal() {
		url, err := c.Receipts.GetPresignedURL(ctx.Request.Context(), purchase.ReceiptPath(tx.UserID, tx.InvoiceID), receiptURLExpiry)
		if err != nil {
			c.Log.Warn("failed to presign receipt url", "error", err, "invoice_id", invoiceID)
		} else {
			resp.ReceiptURL = url
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

// listTransactions ?status=paid&limit=50, по умолчанию зависшие в paid
func (c *Controller) listTransactions(ctx *gin.Context) {
	status := domain.TransactionStatus(ctx.DefaultQuery("status", string(domain.TransactionStatusPaid)))
	if !status.IsValid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 || limit > maxListLimit {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	txs, err := c.Ledger.ListByStatus(ctx.Request.Context(), status, time.Time{}, time.Time{}, limit)
	if err != nil {
		c.Log.Error("failed to list transactions", "error", err, "status", status)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}

	ctx.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (c *Controller) getUser(ctx *gin.Context) {
	userID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := c.Ledger.GetUser(ctx.Request.Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.Log.Error("failed to get user", "error", err, "user_id", userID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// getReceipt отдаёт JSON чека как есть
func (c *Controller) getReceipt(ctx *gin.Context) {
	if c.Receipts == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "receipts storage is disabled"})
		return
	}

	invoiceID := ctx.Param("invoice_id")
	tx, err := c.Ledger.GetByInvoiceID(ctx.Request.Context(), invoiceID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err != nil {
		c.Log.Error("failed to get transaction", "error", err, "invoice_id", invoiceID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	data, err := c.Receipts.GetFile(ctx.Request.Context(), purchase.ReceiptPath(tx.UserID, tx.InvoiceID))
	if errors.Is(err, storage.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		return
	}
	if err != nil {
		c.Log.Error("failed to read receipt", "error", err, "invoice_id", invoiceID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.Data(http.StatusOK, "application/json", data)
}

func (c *Controller) listReceipts(ctx *gin.Context) {
	if c.Receipts == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "receipts storage is disabled"})
		return
	}

	userID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	paths, err := c.Receipts.ListFiles(ctx.Request.Context(), purchase.ReceiptPrefix(userID))
	if err != nil {
		c.Log.Error("failed to list receipts", "error", err, "user_id", userID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if paths == nil {
		paths = []string{}
	}

	ctx.JSON(http.StatusOK, gin.H{"receipts": paths})
}
