package utils

import (
	"context"
	"errors"

	"collection-tracker/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrUserIDNotFound    = errors.New("userID not found in context")
	ErrUserIDNotString   = errors.New("userID in context is not a string")
	ErrRequestIDNotFound = errors.New("requestID not found in context")
)

// GetUserIDFromContext retrieves the authenticated user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(contextkeys.UserIDKey)
	if val == nil {
		return "", ErrUserIDNotFound
	}
	userID, ok := val.(string)
	if !ok {
		return "", ErrUserIDNotString
	}
	return userID, nil
}

// GetRequestIDFromContext retrieves the request correlation ID from the context.
func GetRequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(contextkeys.RequestIDKey).(string)
	if !ok || requestID == "" {
		return "", ErrRequestIDNotFound
	}
	return requestID, nil
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextkeys.UserIDKey, userID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

// WithDocumentKeys tags ctx with the card and set an operation addresses so
// log lines emitted deeper in the call chain carry them.
func WithDocumentKeys(ctx context.Context, cardID, setID string) context.Context {
	if cardID != "" {
		ctx = context.WithValue(ctx, contextkeys.CardIDKey, cardID)
	}
	if setID != "" {
		ctx = context.WithValue(ctx, contextkeys.SetIDKey, setID)
	}
	return ctx
}

func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, contextkeys.ComponentKey, component)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// GetUserIDOrDefault returns the user ID or def when absent
func GetUserIDOrDefault(ctx context.Context, def string) string {
	if userID, err := GetUserIDFromContext(ctx); err == nil && userID != "" {
		return userID
	}
	return def
}
