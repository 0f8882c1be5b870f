// Package storefront hosts the member-facing HTTP surface: signup, login,
// the projected catalog, and the notification inbox.
package storefront

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/harlowe/wholesail/internal/platform/requestctx"
	catalogsvc "github.com/harlowe/wholesail/internal/services/catalog"
	catalogdomain "github.com/harlowe/wholesail/internal/services/catalog/domain"
	"github.com/harlowe/wholesail/internal/services/identity"
	membersdomain "github.com/harlowe/wholesail/internal/services/members/domain"
	"github.com/harlowe/wholesail/internal/services/notifier"
	"github.com/harlowe/wholesail/internal/services/session"
	"github.com/harlowe/wholesail/internal/services/shared/httpjson"
	"github.com/harlowe/wholesail/internal/services/shared/sessionauth"
	"github.com/harlowe/wholesail/internal/services/signup"
)

// MemberReader resolves member records for login session issuance.
type MemberReader interface {
	GetMember(ctx context.Context, memberID string) (membersdomain.Member, error)
}

// Handler serves the member-facing API.
type Handler struct {
	signup   *signup.Orchestrator
	identity *identity.Service
	members  MemberReader
	catalog  *catalogsvc.Service
	inbox    *notifier.Service
	sessions *session.Manager
	ttl      time.Duration
	secure   bool
}

// HandlerConfig wires the storefront handler.
type HandlerConfig struct {
	Signup   *signup.Orchestrator
	Identity *identity.Service
	Members  MemberReader
	Catalog  *catalogsvc.Service
	Inbox    *notifier.Service
	Sessions *session.Manager
	// SessionTTL bounds the session cookie lifetime.
	SessionTTL time.Duration
	// SecureCookies marks session cookies Secure; disable only for local dev.
	SecureCookies bool
}

// NewHandler builds the member-facing API handler.
func NewHandler(config HandlerConfig) *Handler {
	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Handler{
		signup:   config.Signup,
		identity: config.Identity,
		members:  config.Members,
		catalog:  config.Catalog,
		inbox:    config.Inbox,
		sessions: config.Sessions,
		ttl:      ttl,
		secure:   config.SecureCookies,
	}
}

// Routes mounts the member-facing API.
//
// Catalog routes are public; an anonymous request simply projects to the
// public view. Only the inbox requires an authenticated member.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/signup", h.handleSignup)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("POST /api/logout", h.handleLogout)
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.Handle("GET /api/inbox", sessionauth.RequireMember(http.HandlerFunc(h.listInbox)))

	return sessionauth.Middleware(h.sessions, mux)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Tier     string `json:"tier"`
}

type signupResponse struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Tier     string `json:"tier"`
	Status   string `json:"status"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.WriteStatus(w, http.StatusBadRequest, "BAD_REQUEST", "request body is not valid JSON")
		return
	}
	member, err := h.signup.Signup(r.Context(), signup.Input{
		Email:    body.Email,
		Password: body.Password,
		Username: body.Username,
		Tier:     body.Tier,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, signupResponse{
		MemberID: member.ID,
		Username: member.Username,
		Email:    member.Email,
		Tier:     string(member.Tier),
		Status:   string(member.Status),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.WriteStatus(w, http.StatusBadRequest, "BAD_REQUEST", "request body is not valid JSON")
		return
	}
	authenticated, err := h.identity.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	// The member record shares the principal's ID. Rejected and pending
	// members may still log in; projection keeps prices hidden until the
	// admission decision says otherwise.
	member, err := h.members.GetMember(r.Context(), authenticated.ID)
	if err != nil {
		httpjson.WriteError(w, identity.ErrInvalidCredentials)
		return
	}

	token, err := h.sessions.Issue(member.ID, member.Email, string(member.Role))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpjson.Write(w, http.StatusOK, loginResponse{
		MemberID: member.ID,
		Username: member.Username,
		Role:     string(member.Role),
		Status:   string(member.Status),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// projectedView is the wire shape of one projected product. The price field
// is present only when the viewer is entitled to see one.
type projectedView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       *int64    `json:"price,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectedView(product catalogdomain.ProjectedProduct) projectedView {
	return projectedView{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return value
}

func (h *Handler) viewer(r *http.Request) (catalogdomain.ViewerContext, error) {
	return h.catalog.ViewerFor(r.Context(), requestctx.MemberIDFromContext(r.Context()))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	page, err := h.catalog.ListProducts(r.Context(), catalogsvc.ListInput{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}, viewer)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	views := make([]projectedView, 0, len(page.Products))
	for _, product := range page.Products {
		views = append(views, toProjectedView(product))
	}
	httpjson.WriteCount(w, http.StatusOK, views, page.TotalCount)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), r.PathValue("id"), viewer)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, toProjectedView(product))
}

type noticeView struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) listInbox(w http.ResponseWriter, r *http.Request) {
	memberID := requestctx.MemberIDFromContext(r.Context())
	notices, err := h.inbox.Inbox(r.Context(), memberID, queryInt(r, "limit"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	views := make([]noticeView, 0, len(notices))
	for _, notice := range notices {
		views = append(views, noticeView{
			ID:        notice.ID,
			Topic:     notice.Topic,
			Subject:   notice.Subject,
			Body:      notice.Body,
			CreatedAt: notice.CreatedAt,
		})
	}
	httpjson.WriteCount(w, http.StatusOK, views, len(views))
}
