// Package admin hosts the operator HTTP surface for the approval workflow
// and catalog management.
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/harlowe/wholesail/internal/platform/requestctx"
	catalogsvc "github.com/harlowe/wholesail/internal/services/catalog"
	catalogdomain "github.com/harlowe/wholesail/internal/services/catalog/domain"
	memberssvc "github.com/harlowe/wholesail/internal/services/members"
	"github.com/harlowe/wholesail/internal/services/members/authz"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/shared/httpjson"
	"github.com/harlowe/wholesail/internal/services/shared/sessionauth"
)

// Handler serves the operator API.
type Handler struct {
	members *memberssvc.Service
	catalog *catalogsvc.Service
	gate    *authz.Gate
}

// NewHandler builds the operator API handler.
func NewHandler(members *memberssvc.Service, catalog *catalogsvc.Service, gate *authz.Gate) *Handler {
	return &Handler{members: members, catalog: catalog, gate: gate}
}

// Routes mounts the operator API behind session authentication.
func (h *Handler) Routes(verifier sessionauth.Verifier) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/members", h.listMembers)
	mux.HandleFunc("GET /api/members/pending", h.pendingMembers)
	mux.HandleFunc("GET /api/members/{id}", h.getMember)
	mux.HandleFunc("POST /api/members/{id}/approve", h.approveMember)
	mux.HandleFunc("POST /api/members/{id}/reject", h.rejectMember)
	mux.HandleFunc("POST /api/members/{id}/reset", h.resetMember)
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)

	return sessionauth.Middleware(verifier, sessionauth.RequireMember(mux))
}

// memberView is the wire shape of one member record.
type memberView struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Tier           string     `json:"tier"`
	Status         string     `json:"status"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toMemberView(member membersdomain.Member) memberView {
	return memberView{
		ID:             member.ID,
		Username:       member.Username,
		Email:          member.Email,
		Role:           string(member.Role),
		Tier:           string(member.Tier),
		Status:         string(member.Status),
		ApprovedAt:     member.ApprovedAt,
		RejectedReason: member.RejectedReason,
		CreatedAt:      member.CreatedAt,
		UpdatedAt:      member.UpdatedAt,
	}
}

func toMemberViews(members []membersdomain.Member) []memberView {
	views := make([]memberView, 0, len(members))
	for _, member := range members {
		views = append(views, toMemberView(member))
	}
	return views
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	page, err := h.members.ListMembers(r.Context(), actorID, memberssvc.ListInput{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteCount(w, http.StatusOK, toMemberViews(page.Members), page.TotalCount)
}

func (h *Handler) pendingMembers(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	pending, err := h.members.PendingMembers(r.Context(), actorID)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.WriteCount(w, http.StatusOK, toMemberViews(pending), len(pending))
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	member, err := h.members.GetMember(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toMemberView(member))
}

func (h *Handler) approveMember(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	if err := h.members.Approve(r.Context(), actorID, r.PathValue("id")); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	member, err := h.members.GetMember(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toMemberView(member))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) rejectMember(w http.ResponseWriter, r *http.Request) {
	var body rejectRequest
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.WriteStatus(w, http.StatusBadRequest, "BAD_REQUEST", "request body is not valid JSON")
		return
	}
	actorID := requestctx.MemberIDFromContext(r.Context())
	if err := h.members.Reject(r.Context(), actorID, r.PathValue("id"), body.Reason); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	member, err := h.members.GetMember(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toMemberView(member))
}

func (h *Handler) resetMember(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	if err := h.members.ResetToPending(r.Context(), actorID, r.PathValue("id")); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	member, err := h.members.GetMember(r.Context(), actorID, r.PathValue("id"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toMemberView(member))
}

// productView is the wire shape of one product with both stored prices.
// Only the operator surface ever serializes this shape.
type productView struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	WholesalePrice int64     `json:"wholesale_price"`
	RetailPrice    int64     `json:"retail_price"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toProductView(product catalogdomain.Product) productView {
	return productView{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		WholesalePrice: product.WholesalePrice,
		RetailPrice:    product.RetailPrice,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	actorID := requestctx.MemberIDFromContext(r.Context())
	if err := h.gate.RequireAdmin(r.Context(), actorID); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	page, err := h.catalog.ListProductsRaw(r.Context(), catalogsvc.ListInput{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	views := make([]productView, 0, len(page.Products))
	for _, product := range page.Products {
		views = append(views, toProductView(product))
	}
	httpjson.WriteCount(w, http.StatusOK, views, page.TotalCount)
}

type createProductRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	WholesalePrice int64  `json:"wholesale_price"`
	RetailPrice    int64  `json:"retail_price"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body createProductRequest
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.WriteStatus(w, http.StatusBadRequest, "BAD_REQUEST", "request body is not valid JSON")
		return
	}
	actorID := requestctx.MemberIDFromContext(r.Context())
	if err := h.gate.RequireAdmin(r.Context(), actorID); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), catalogdomain.NewProductInput{
		Name:           body.Name,
		Description:    body.Description,
		WholesalePrice: body.WholesalePrice,
		RetailPrice:    body.RetailPrice,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toProductView(product))
}
