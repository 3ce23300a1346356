package proto

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{ErrUnauthenticated, KindUnauthenticated},
		{ErrNotAuthorized, KindNotAuthorized},
		{ErrTeamNotFound, KindNotFound},
		{ErrTeamFull, KindInvariantViolation},
		{fmt.Errorf("accept: %w", ErrAlreadyHasTeam), KindInvariantViolation},
		{InvalidArgument("bad"), KindInvalidArgument},
		{errors.New("connection refused"), KindStoreFailure},
		{context.DeadlineExceeded, KindStoreFailure},
		{StoreFailure(errors.New("disk full")), KindStoreFailure},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) => %q, want %q", c.err, got, c.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	for _, err := range []error{ErrTeamFull, ErrNotAuthorized, ErrUnauthenticated, ErrInteractionNotFound, nil} {
		if Retryable(err) {
			t.Errorf("Retryable(%v) => true, want false", err)
		}
	}
	for _, err := range []error{errors.New("timeout"), ErrConcurrentUpdate} {
		if !Retryable(err) {
			t.Errorf("Retryable(%v) => false, want true", err)
		}
	}
}

func TestStoreFailure(t *testing.T) {
	if err := StoreFailure(nil); err != nil {
		t.Errorf("StoreFailure(nil) => %v, want nil", err)
	}

	cause := errors.New("connection reset")
	err := StoreFailure(cause)
	if !errors.Is(err, cause) {
		t.Errorf("StoreFailure(%v) does not wrap its cause", cause)
	}
	if err.Error() != cause.Error() {
		t.Errorf("StoreFailure(%v).Error() => %q, want %q", cause, err.Error(), cause.Error())
	}

	if err := StoreFailure(ErrTeamFull); err != ErrTeamFull { //nolint:errorlint
		t.Errorf("StoreFailure(ErrTeamFull) => %v, want ErrTeamFull untouched", err)
	}
}

func TestMessages(t *testing.T) {
	for err, want := range map[error]string{
		ErrUnauthenticated: "Not authenticated",
		ErrAlreadyApplied:  "You have already applied to this team",
		ErrAlreadyInvited:  "User already has a pending invitation",
		ErrTeamFull:        "Team is already full",
	} {
		if err.Error() != want {
			t.Errorf("Error() => %q, want %q", err.Error(), want)
		}
	}
}
