package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_DefaultStatusByCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeMissingWalletAddress, http.StatusBadRequest},
		{CodeInvalidPoolIDs, http.StatusBadRequest},
		{CodePoolNotFound, http.StatusNotFound},
		{CodePackageNotFound, http.StatusNotFound},
		{CodeFlowXFetchFailed, http.StatusInternalServerError},
		{CodeStoreError, http.StatusInternalServerError},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code).StatusCode; got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppError_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Internal(CodeBluefinFetchFailed, "pool 0xabc", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if got := err.Details(); got != "pool 0xabc: dial tcp: connection refused" {
		t.Errorf("Details = %q", got)
	}
	if GetCode(fmt.Errorf("wrapped: %w", err)) != CodeBluefinFetchFailed {
		t.Error("GetCode should see through wrapping")
	}
}

func TestAppError_IsMatchesCode(t *testing.T) {
	err := New(CodePoolNotFound, WithContext("0x1"))
	if !errors.Is(err, New(CodePoolNotFound)) {
		t.Error("same code should match")
	}
	if errors.Is(err, New(CodeStoreError)) {
		t.Error("different code should not match")
	}
}

func TestToResponse(t *testing.T) {
	err := Internal(CodeStoreError, "", errors.New("relation missing"))
	body := err.ToResponse("Failed to create package")

	if body["error"] != "Failed to create package" {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] != "relation missing" {
		t.Errorf("details = %v", body["details"])
	}

	body = Validation(CodeMissingWalletAddress, "").ToResponse("")
	if body["error"] != "Missing wallet address" {
		t.Errorf("fallback message = %v", body["error"])
	}
}

func TestToLog(t *testing.T) {
	err := External(CodeSuiRPCError, "sui_getObject", errors.New("timeout"))
	fields := err.ToLog()

	if fields["code"] != CodeSuiRPCError || fields["statusCode"] != http.StatusInternalServerError {
		t.Errorf("fields = %v", fields)
	}
	if fields["context"] != "sui_getObject" || fields["cause"] != "timeout" {
		t.Errorf("context/cause = %v %v", fields["context"], fields["cause"])
	}
	if stack, _ := fields["stack"].(string); !strings.Contains(stack, "TestToLog") {
		t.Errorf("stack should include the caller: %q", stack)
	}

	fields = New(CodeInvalidBody).ToLog()
	if _, ok := fields["cause"]; ok {
		t.Error("cause should be omitted when nil")
	}
}

func TestStatusOf(t *testing.T) {
	if StatusOf(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("plain errors should be 500")
	}
	if StatusOf(fmt.Errorf("x: %w", NotFound(CodePoolNotFound, "p"))) != http.StatusNotFound {
		t.Error("wrapped not found should be 404")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeStoreError, "") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	orig := NotFound(CodePoolNotFound, "")
	if got := Wrap(orig, CodeStoreError, "ctx"); got != orig || got.Context != "ctx" {
		t.Error("Wrap should reuse an existing AppError and fill context")
	}
	if got := Wrap(errors.New("x"), CodeStoreError, ""); got.Code != CodeStoreError {
		t.Errorf("code = %s", got.Code)
	}
}
