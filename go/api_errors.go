package procurementserver

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	directory "github.com/Apurer/go-procurement-server/internal/domains/directory/domain"
	"github.com/Apurer/go-procurement-server/internal/domains/orders/domain"
	apierrors "github.com/Apurer/go-procurement-server/internal/shared/errors"
)

// Request headers carrying the caller identity and the submission idempotency key.
const (
	HeaderActorID        = "X-Actor-ID"
	HeaderActorRole      = "X-Actor-Role"
	HeaderIdempotencyKey = "Idempotency-Key"
)

var responder = apierrors.NewChainedResponder("", apierrors.FaultMapper)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError maps classified failures to their problem; anything else is a 500
// whose detail is withheld from the client.
func respondServiceError(c *gin.Context, err error) {
	responder.RespondError(c, err)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

func parseOptionalInt(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" must be an integer"))
		return nil, false
	}
	return &v, true
}

// actorFromHeaders reads the moderator identity set by the authenticating proxy.
func actorFromHeaders(c *gin.Context) (domain.Actor, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(HeaderActorID)), 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.ErrUnauthorized.WithDetail(HeaderActorID+" header is missing or invalid"))
		return domain.Actor{}, false
	}
	role, err := directory.ParseRole(c.GetHeader(HeaderActorRole))
	if err != nil {
		if errors.Is(err, directory.ErrInvalidRole) {
			respondProblem(c, apierrors.ErrUnauthorized.WithDetail(HeaderActorRole+" header is missing or invalid"))
			return domain.Actor{}, false
		}
		respondServiceError(c, err)
		return domain.Actor{}, false
	}
	return domain.Actor{ID: id, Role: role}, true
}
