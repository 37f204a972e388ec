package handler

import (
	"context"
	"net/http"
	"strconv"

	appErrors "github.com/floracrm/flowershop-backend/internal/errors"
	"github.com/floracrm/flowershop-backend/internal/model"
	"github.com/floracrm/flowershop-backend/internal/repository"
)

type contextKey string

const userIDKey contextKey = "user_id"

// CurrentUser is the opaque current-user provider: session handling lives in
// front of this service, which only receives the authenticated user id in
// the X-User-ID header.
func CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			respondError(w, http.StatusUnauthorized, appErrors.ErrNotAuthenticated.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFrom(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, appErrors.ErrNotAuthenticated
	}
	return userID, nil
}

// currentShop resolves the tenant for this request from the current user.
func currentShop(ctx context.Context, shopRepo repository.ShopRepositoryInterface) (*model.Shop, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	return shopRepo.GetByUserID(ctx, userID)
}
