package auth_service

import (
	"time"
	"usermanager/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "usermanager"

type userClaims struct {
	models.CurrentUser
	jwt.RegisteredClaims
}

// generateJwt создает JWT токен. Роль и статус фиксируются на момент выдачи.
func generateJwt(user *models.User, now time.Time, expiresIn time.Duration, jwtSecret string) (string, error) {
	claims := userClaims{
		CurrentUser: *models.NewCurrentUser(user),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// verifyJwt проверяет подпись, алгоритм и срок действия токена
func verifyJwt(tokenString string, jwtSecret string, now time.Time) (*models.CurrentUser, error) {
	token, err := jwt.ParseWithClaims(tokenString, &userClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*userClaims); ok && token.Valid {
		return &claims.CurrentUser, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
