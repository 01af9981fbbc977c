package auth

import (
	"log/slog"
	"net/http"

	"bookswap/model"
	authsvc "bookswap/service/auth"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Signup starts email verification
// @Summary      Start signup
// @Description  Send a one-time verification code to the given email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.SignupReq  true  "Signup payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email already registered"
// @Failure      500  {object}  map[string]any
// @Router       /v1/auth/signup [post]
func (ct *Controller) Signup(c echo.Context) error {
	var req model.SignupReq
	if err := c.Bind(&req); err != nil {
		ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	expiresAt, err := ct.Svc.Signup(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrEmailTaken:
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		case authsvc.ErrMailFailed:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to send verification code")
		default:
			ct.logInternal(c, "signup failed", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "signup failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "verification code sent to your email address",
		"email":          req.Email,
		"otp_expires_at": expiresAt,
	})
}

// VerifyOTP completes signup
// @Summary      Verify one-time code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.VerifyOTPReq  true  "Verification payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any "invalid or expired code"
// @Failure      500  {object}  map[string]any
// @Router       /v1/auth/verify-otp [post]
func (ct *Controller) VerifyOTP(c echo.Context) error {
	var req model.VerifyOTPReq
	if err := c.Bind(&req); err != nil {
		ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	u, pair, err := ct.Svc.VerifyOTP(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidOTP:
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired verification code")
		default:
			ct.logInternal(c, "verify otp failed", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "verification failed")
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "account created successfully",
		"user":          u,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns access and refresh JWTs
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /v1/auth/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	u, pair, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidCreds:
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		case authsvc.ErrNotVerified:
			return echo.NewHTTPError(http.StatusUnauthorized, "please verify your email first")
		default:
			ct.logInternal(c, "login failed", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "login success",
		"user":          u,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Refresh rotates the refresh token
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RefreshReq  true  "Refresh payload"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Router       /v1/auth/refresh [post]
func (ct *Controller) Refresh(c echo.Context) error {
	var req model.RefreshReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	pair, err := ct.Svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidRefresh:
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		default:
			ct.logInternal(c, "refresh failed", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":       "token refreshed successfully",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Logout removes the refresh token
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /v1/auth/logout [post]
func (ct *Controller) Logout(c echo.Context) error {
	var req model.RefreshReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.RefreshToken != "" {
		if err := ct.Svc.Logout(c.Request().Context(), req.RefreshToken); err != nil {
			ct.logInternal(c, "logout failed", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// Profile returns the current user
// @Summary      Profile
// @Tags         auth
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /v1/auth/profile [get]
func (ct *Controller) Profile(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)

	u, err := ct.Svc.Profile(c.Request().Context(), uid)
	if err != nil {
		if authsvc.Code(err) == authsvc.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		ct.logInternal(c, "profile failed", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func (ct *Controller) logInternal(c echo.Context, msg string, err error) {
	rid := c.Response().Header().Get(echo.HeaderXRequestID)
	ct.Log.Error(msg,
		"err", err,
		"req_id", rid,
		"path", c.Path(),
		"method", c.Request().Method,
	)
}
