package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/server/cluster"
	"github.com/hotelbook/booking-server/pkg/server/model"
	"github.com/hotelbook/booking-server/pkg/util/jsonutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

type Cluster interface {
	cluster.Discount
	cluster.Issue
	cluster.RoomType
	cluster.Hotel
	cluster.Booking
	cluster.Account
	IsRunning() bool
}

// Handler is an http handler of the booking server.
type Handler struct {
	c  Cluster
	lg *zap.Logger
}

// NewHandler creates an http handler
func NewHandler(c Cluster, lg *zap.Logger) *Handler {
	return &Handler{
		c:  c,
		lg: lg,
	}
}

// Router returns the router serving all apis.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.trace, Logger{h}.log, h.recoverPanic, Checker{h}.check)

	r.HandleFunc("/", h.hello).Methods(http.MethodGet)

	r.HandleFunc("/accounts", h.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/login/password", h.passwordLogin).Methods(http.MethodPost)
	r.HandleFunc("/login/{provider:google|facebook}", h.socialLogin).Methods(http.MethodPost)
	r.HandleFunc("/confirmation-codes", h.sendConfirmationCode).Methods(http.MethodPost)
	r.HandleFunc("/confirmation-codes/verify", h.verifyConfirmationCode).Methods(http.MethodPost)
	r.HandleFunc("/password-resets", h.sendResetCode).Methods(http.MethodPost)
	r.HandleFunc("/password-resets/verify", h.resetPassword).Methods(http.MethodPost)

	r.HandleFunc("/discounts", h.listDiscounts).Methods(http.MethodGet)
	r.HandleFunc("/discounts", h.createDiscount).Methods(http.MethodPost)
	r.HandleFunc("/discounts/{id:[0-9]+}", h.updateDiscount).Methods(http.MethodPut)
	r.HandleFunc("/discounts/{id:[0-9]+}", h.deleteDiscount).Methods(http.MethodDelete)

	r.HandleFunc("/issues", h.listIssues).Methods(http.MethodGet)
	r.HandleFunc("/issues", h.createIssue).Methods(http.MethodPost)
	r.HandleFunc("/issues/{id:[0-9]+}", h.updateIssue).Methods(http.MethodPut)
	r.HandleFunc("/issues/{id:[0-9]+}", h.deleteIssue).Methods(http.MethodDelete)

	r.HandleFunc("/room-types", h.listRoomTypes).Methods(http.MethodGet)
	r.HandleFunc("/room-types", h.createRoomType).Methods(http.MethodPost)
	r.HandleFunc("/room-types/{id:[0-9]+}", h.updateRoomType).Methods(http.MethodPut)
	r.HandleFunc("/room-types/{id:[0-9]+}", h.deleteRoomType).Methods(http.MethodDelete)

	r.HandleFunc("/hotels", h.listHotels).Methods(http.MethodGet)
	r.HandleFunc("/hotels", h.createHotel).Methods(http.MethodPost)
	r.HandleFunc("/hotels/{id}", h.getHotel).Methods(http.MethodGet)
	r.HandleFunc("/hotels/{id}", h.updateHotel).Methods(http.MethodPut)
	r.HandleFunc("/hotels/{id}", h.deleteHotel).Methods(http.MethodDelete)

	auth := r.PathPrefix("/bookings").Subrouter()
	auth.Use(h.authenticate)
	auth.HandleFunc("", h.listBookings).Methods(http.MethodGet)
	auth.HandleFunc("", h.createBooking).Methods(http.MethodPost)

	return r
}

func (h *Handler) Logger() *zap.Logger {
	return h.lg
}

func (h *Handler) hello(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, http.StatusOK, "Hello from booking server", nil)
}

// ok writes a json object with the message and the fields.
func (h *Handler) ok(w http.ResponseWriter, r *http.Request, code int, message string, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["message"] = message
	h.writeJSON(w, r, code, body)
}

// fail writes the error with a status code inferred from it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		h.lg.Error("internal server error", traceutil.TraceLogField(r.Context()), zap.Error(err))
		message = http.StatusText(code)
	}
	h.writeJSON(w, r, code, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	bytes, err := jsonutil.Marshal(v)
	if err != nil {
		h.lg.Error("failed to marshal response", traceutil.TraceLogField(r.Context()), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer mcache.Free(bytes)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(bytes)
}

// decode reads the json body of the request into v.
// It returns model.ErrInvalidArgument if the body is malformed.
func decode(r *http.Request, v any) error {
	if err := jsonutil.API.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(model.ErrInvalidArgument, "invalid request body: %s", err.Error())
	}
	return nil
}

// pathID returns the numeric id in the path.
func pathID(r *http.Request) (uint64, error) {
	s := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(model.ErrInvalidArgument, "invalid id %q", s)
	}
	return id, nil
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrDiscountNotFound),
		errors.Is(err, model.ErrIssueNotFound),
		errors.Is(err, model.ErrRoomTypeNotFound),
		errors.Is(err, model.ErrHotelNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDiscountInUse),
		errors.Is(err, model.ErrHotelInUse),
		errors.Is(err, model.ErrEmailAlreadyExists),
		errors.Is(err, model.ErrIDCollision):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type userIDKey struct{}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
