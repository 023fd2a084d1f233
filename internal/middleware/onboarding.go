package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicflow/backend/internal/reqctx"
	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/response"
)

// OnboardingLookup reports whether a user finished onboarding.
type OnboardingLookup interface {
	IsOnboarded(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireOnboardingComplete rejects callers that have not completed onboarding.
func RequireOnboardingComplete(lookup OnboardingLookup) gin.HandlerFunc {
	return onboardingGate(lookup, true, apperror.Forbidden("complete onboarding before continuing"))
}

// RequireOnboardingPending rejects callers that already completed onboarding.
func RequireOnboardingPending(lookup OnboardingLookup) gin.HandlerFunc {
	return onboardingGate(lookup, false, apperror.Conflict("onboarding already completed"))
}

func onboardingGate(lookup OnboardingLookup, want bool, reject *apperror.Error) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := reqctx.PrincipalFrom(c)
		if !ok {
			response.Fail(c, apperror.Unauthorized("not authenticated"))
			return
		}
		done, err := lookup.IsOnboarded(c.Request.Context(), principal.UserID)
		if err != nil {
			response.Fail(c, apperror.Internal("failed to check onboarding status", err))
			return
		}
		if done != want {
			response.Fail(c, reject)
			return
		}
		c.Next()
	}
}
