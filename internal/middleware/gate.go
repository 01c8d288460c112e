package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/auth"
	"github.com/hongminglow/bank-portal/internal/http/respond"
	"github.com/hongminglow/bank-portal/internal/models"
	"github.com/hongminglow/bank-portal/internal/storage"
)

// Rule binds a path to the role allowed to call it. A Path ending in "/"
// matches every path below it; otherwise the match is exact.
type Rule struct {
	Path   string
	Role   models.Role
	Public bool
}

func (r Rule) matches(path string) bool {
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

// TokenParser resolves a raw bearer token to a principal.
type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

// Gate authenticates requests and enforces the rule table before dispatch.
// The first matching rule wins; paths no rule matches pass through untouched.
type Gate struct {
	tokens TokenParser
	rules  []Rule
	live   map[models.Role]LivenessCheck
	log    *zap.Logger
}

// LivenessCheck confirms the account behind a principal still exists. It
// returns storage.ErrNotFound once the account is gone.
type LivenessCheck func(ctx context.Context, id string) error

// NewGate builds a gate over an ordered rule table.
func NewGate(tokens TokenParser, rules []Rule, log *zap.Logger) *Gate {
	return &Gate{tokens: tokens, rules: rules, live: map[models.Role]LivenessCheck{}, log: log}
}

// RequireLive makes the gate re-check principals of role on every request,
// so tokens of deleted accounts stop working before they expire.
func (g *Gate) RequireLive(role models.Role, check LivenessCheck) *Gate {
	g.live[role] = check
	return g
}

// Wrap returns next guarded by the gate.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, ok := g.match(r.URL.Path)
		if !ok || rule.Public {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearer(r.Header.Get("Authorization"))
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		p, err := g.tokens.Parse(raw)
		if err != nil {
			g.log.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		notePrincipal(r.Context(), p)
		if check, ok := g.live[p.Role]; ok {
			if err := check(r.Context(), p.ID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					respond.Error(w, http.StatusUnauthorized, "account no longer exists")
					return
				}
				g.log.Error("liveness check failed", zap.String("principal_id", p.ID), zap.Error(err))
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
		}
		if p.Role != rule.Role {
			respond.Error(w, http.StatusForbidden, "forbidden")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func (g *Gate) match(path string) (Rule, bool) {
	for _, rule := range g.rules {
		if rule.matches(path) {
			return rule, true
		}
	}
	return Rule{}, false
}

func bearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
