package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// HeaderArchiveLocation reports where an exported snapshot was archived.
const HeaderArchiveLocation = "X-Archive-Location"

// QuoteHandler serves the quote collection API.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	Text     string `json:"text"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

func toQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{Text: q.Text, Author: q.Author, Category: q.Category}
}

func toQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = toQuoteResponse(&quotes[i])
	}

	return out
}

type listQuotesRequest struct {
	dto.PaginationRequest

	Category string `json:"category" form:"category" validate:"max=100"`
}

// ListQuotes handles GET /api/v1/quotes. Quotes come in stored order and
// are paged with an opaque cursor.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req listQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, dto.AsDomainError(err))
		return
	}

	quotes := toQuoteResponses(h.service.ListQuotes(c.Request.Context(), req.Category))

	page, err := dto.Paginate(quotes, &req.PaginationRequest, func(q QuoteResponse) string {
		return domain.NormalizeKey(q.Text)
	})
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("cursor", "invalid cursor"))
		return
	}

	c.JSON(http.StatusOK, page)
}

type addQuoteRequest struct {
	Text     string `json:"text" validate:"max=1000"`
	Author   string `json:"author" validate:"max=200"`
	Category string `json:"category" validate:"max=100"`
}

type addQuoteResponse struct {
	Quote     QuoteResponse `json:"quote"`
	Forwarded bool          `json:"forwarded"`
	Message   string        `json:"message"`
}

// AddQuote handles POST /api/v1/quotes. The new quote becomes the caller's
// last viewed quote. Blank text is rejected with 400 and a duplicate text
// with 409.
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req addQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, dto.AsDomainError(err))
		return
	}

	res, err := h.service.AddQuote(c.Request.Context(), middleware.GetSessionID(c), domain.Quote{
		Text:     req.Text,
		Author:   req.Author,
		Category: req.Category,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, addQuoteResponse{
		Quote:     toQuoteResponse(&res.Quote),
		Forwarded: res.Forwarded,
		Message:   domain.MessageQuoteAdded,
	})
}

type randomQuoteRequest struct {
	Category string `form:"category" validate:"max=100"`
}

type quoteEnvelope struct {
	Quote QuoteResponse `json:"quote"`
}

// RandomQuote handles GET /api/v1/quotes/random and records the pick as
// the caller's last viewed quote.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var req randomQuoteRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, dto.AsDomainError(err))
		return
	}

	q, err := h.service.RandomQuote(c.Request.Context(), middleware.GetSessionID(c), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteEnvelope{Quote: toQuoteResponse(&q)})
}

// Export handles GET /api/v1/quotes/export. The snapshot is sent as a
// download named after the export time.
func (h *QuoteHandler) Export(c *gin.Context) {
	res, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if res.Location != "" {
		c.Header(HeaderArchiveLocation, res.Location)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Data)
}

type importResponse struct {
	app.ImportOutcome

	Message string `json:"message"`
}

// Import handles POST /api/v1/quotes/import. The body is the raw snapshot:
// a quote array or an object with a quotes array.
func (h *QuoteHandler) Import(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("body", "unreadable request body"))
		return
	}

	res, err := h.service.Import(c.Request.Context(), raw)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, importResponse{ImportOutcome: res, Message: res.Message()})
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, categoriesResponse{
		Categories: h.service.Categories(ctx),
		Selected:   h.service.SelectedCategory(ctx),
	})
}

type categoryPreference struct {
	Category string `json:"category" validate:"max=100"`
}

// SelectedCategory handles GET /api/v1/preferences/category.
func (h *QuoteHandler) SelectedCategory(c *gin.Context) {
	c.JSON(http.StatusOK, categoryPreference{Category: h.service.SelectedCategory(c.Request.Context())})
}

// SetSelectedCategory handles PUT /api/v1/preferences/category. An empty
// category resets the filter to "all".
func (h *QuoteHandler) SetSelectedCategory(c *gin.Context) {
	var req categoryPreference
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, dto.AsDomainError(err))
		return
	}

	selected, err := h.service.SetSelectedCategory(c.Request.Context(), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, categoryPreference{Category: selected})
}

// LastViewed handles GET /api/v1/session/last-viewed.
func (h *QuoteHandler) LastViewed(c *gin.Context) {
	q, err := h.service.LastViewed(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteEnvelope{Quote: toQuoteResponse(&q)})
}

// StartupQuote handles GET /api/v1/session/quote: the last viewed quote,
// or a fresh pick in the selected category.
func (h *QuoteHandler) StartupQuote(c *gin.Context) {
	q, err := h.service.StartupQuote(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteEnvelope{Quote: toQuoteResponse(&q)})
}

// EndSession handles DELETE /api/v1/session.
func (h *QuoteHandler) EndSession(c *gin.Context) {
	if err := h.service.EndSession(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type syncResponse struct {
	domain.MergeResult

	Message string `json:"message"`
}

// Sync handles POST /api/v1/sync: one pull and merge from the remote source.
func (h *QuoteHandler) Sync(c *gin.Context) {
	res, err := h.service.Sync(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, syncResponse{MergeResult: res, Message: res.Message()})
}

// RegisterRoutes registers the quote API on rg. guard runs in front of
// every route that changes the collection or the preferences.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	mutating := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), handler)
	}

	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", mutating(h.AddQuote)...)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", mutating(h.Import)...)

	rg.GET("/categories", h.Categories)
	rg.GET("/preferences/category", h.SelectedCategory)
	rg.PUT("/preferences/category", mutating(h.SetSelectedCategory)...)

	rg.GET("/session/quote", h.StartupQuote)
	rg.GET("/session/last-viewed", h.LastViewed)
	rg.DELETE("/session", h.EndSession)

	rg.POST("/sync", mutating(h.Sync)...)
}
