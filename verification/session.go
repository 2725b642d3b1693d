package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/identity"
	"github.com/ufacm/checkin/otp"
)

// State is the phase of a confirmation flow.
type State uint8

const (
	Idle State = iota
	Submitting
	AwaitingCode
	Verifying
	Verified
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case AwaitingCode:
		return "awaiting_code"
	case Verifying:
		return "verifying"
	case Verified:
		return "verified"
	default:
		return "unknown"
	}
}

const (
	DefaultTimeout           = 15 * time.Second
	DefaultMaxVerifyAttempts = 5
)

// Options configure a Session. Provider is required.
type Options struct {
	Provider  Provider
	Validator *identity.Validator
	// RedirectTo is handed to the provider on signup.
	RedirectTo string
	// Timeout bounds every provider call. Zero selects DefaultTimeout.
	Timeout time.Duration
	// MaxVerifyAttempts is the number of failed verifications allowed per
	// code. Zero selects DefaultMaxVerifyAttempts.
	MaxVerifyAttempts int
	Logger            zerolog.Logger
}

// SignupForm is the raw input of the registration form.
type SignupForm struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	State     State
	Resending bool
	Email     string
	Error     string
	Notice    string
	Cells     []string
	Focus     int
	CanSubmit bool
	Attempts  int
}

// Session drives one signup confirmation: signup, code entry, verification
// and resend. Every method is safe for concurrent use. Provider calls run
// without the lock held; at most one call per flow is in flight and a second
// one fails with ErrBusy instead of queueing.
type Session struct {
	provider    Provider
	validator   *identity.Validator
	redirectTo  string
	timeout     time.Duration
	maxAttempts int
	logger      zerolog.Logger

	mu        sync.Mutex
	state     State
	resending bool
	epoch     uint64
	email     string
	errMsg    string
	notice    string
	attempts  int
	buffer    *otp.Buffer
	result    *checkin.Session
}

func New(opts Options) (*Session, error) {
	if opts.Provider == nil {
		return nil, errors.New("verification: provider is required")
	}
	if opts.Timeout < 0 {
		return nil, errors.New("verification: timeout must be >= 0")
	}
	if opts.MaxVerifyAttempts < 0 {
		return nil, errors.New("verification: max verify attempts must be >= 0")
	}

	s := &Session{
		provider:    opts.Provider,
		validator:   opts.Validator,
		redirectTo:  opts.RedirectTo,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxVerifyAttempts,
		logger:      opts.Logger,
		buffer:      otp.New(),
	}
	if s.validator == nil {
		s.validator = identity.Default()
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxAttempts == 0 {
		s.maxAttempts = DefaultMaxVerifyAttempts
	}
	return s, nil
}

// BeginSignup validates form locally and, when it passes, registers the
// address with the provider. Validation failures never reach the provider.
// A provider failure returns the session to Idle with its message; success
// opens the confirmation step with an empty buffer.
func (s *Session) BeginSignup(ctx context.Context, form SignupForm) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrBusy
	}

	if err := s.validateForm(form); err != nil {
		s.errMsg = UserMessage(err)
		s.mu.Unlock()
		return err
	}

	s.state = Submitting
	s.email = form.Email
	s.errMsg = ""
	s.notice = ""
	epoch := s.epoch
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.provider.SignUp(callCtx, form.Email, form.Password, s.redirectTo)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrCancelled
	}

	if err != nil {
		s.state = Idle
		s.errMsg = s.describe(err, "signup")
		return err
	}

	s.state = AwaitingCode
	s.attempts = 0
	s.buffer.Reset()
	s.logger.Debug().Str("email", form.Email).Msg("verification: awaiting code")
	return nil
}

func (s *Session) validateForm(form SignupForm) error {
	if err := s.validator.RequireEmail(form.Email); err != nil {
		return err
	}
	return s.validator.ValidatePassword(form.Password, form.ConfirmPassword)
}

// VerifyCode submits code for the stored address. A rejected code keeps the
// confirmation step open with the provider's message; success is terminal.
func (s *Session) VerifyCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if err := s.codeStepLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !otp.IsCode(code) {
		s.errMsg = MessageInvalidCode
		s.mu.Unlock()
		return ErrInvalidCode
	}
	if s.attempts >= s.maxAttempts {
		s.errMsg = MessageTooManyAttempts
		s.mu.Unlock()
		return ErrTooManyAttempts
	}

	s.state = Verifying
	s.errMsg = ""
	email := s.email
	epoch := s.epoch
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	sess, err := s.provider.VerifyOTP(callCtx, email, code, checkin.OTPSignup)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrCancelled
	}

	if err != nil {
		s.state = AwaitingCode
		s.attempts++
		s.errMsg = s.describe(err, "verify")
		return err
	}

	s.state = Verified
	s.result = sess
	s.buffer.Reset()
	s.logger.Debug().Str("email", email).Msg("verification: verified")
	return nil
}

// Submit verifies the buffered code. It is the manual counterpart of the
// auto-submit and refuses an incomplete buffer.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	complete := s.buffer.Complete()
	code := s.buffer.Code()
	s.mu.Unlock()

	if !complete {
		return ErrInvalidCode
	}
	return s.VerifyCode(ctx, code)
}

// Input writes one cell. When the write completes the buffer the code is
// verified before Input returns.
func (s *Session) Input(ctx context.Context, index int, raw string) (otp.Event, error) {
	s.mu.Lock()
	if err := s.codeStepLocked(); err != nil {
		ev := otp.Event{Focus: s.buffer.Focus()}
		s.mu.Unlock()
		return ev, err
	}
	ev := s.buffer.Input(index, raw)
	s.mu.Unlock()

	if !ev.Submit {
		return ev, nil
	}
	return ev, s.VerifyCode(ctx, ev.Code)
}

// Backspace moves focus back over an empty cell.
func (s *Session) Backspace(index int) otp.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeStepLocked() != nil {
		return otp.Event{Focus: s.buffer.Focus()}
	}
	return s.buffer.Backspace(index)
}

// Paste fills the buffer from raw. A full eight-digit paste is verified
// before Paste returns.
func (s *Session) Paste(ctx context.Context, raw string) (otp.Event, error) {
	s.mu.Lock()
	if err := s.codeStepLocked(); err != nil {
		ev := otp.Event{Focus: s.buffer.Focus()}
		s.mu.Unlock()
		return ev, err
	}
	ev := s.buffer.Paste(raw)
	s.mu.Unlock()

	if !ev.Submit {
		return ev, nil
	}
	return ev, s.VerifyCode(ctx, ev.Code)
}

// Resend asks the provider for a new code. Whatever the outcome, the buffer
// is emptied, focus returns to the first cell and the attempt budget is
// restored; the notice tells the user whether the resend went out.
func (s *Session) Resend(ctx context.Context) error {
	s.mu.Lock()
	if err := s.codeStepLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.resending = true
	s.notice = ""
	email := s.email
	epoch := s.epoch
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.provider.ResendOTP(callCtx, email, checkin.OTPSignup)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrCancelled
	}

	s.resending = false
	s.attempts = 0
	s.buffer.Reset()
	if err != nil {
		s.describe(err, "resend")
		s.notice = NoticeResendFailed
		return err
	}
	s.notice = NoticeResent
	return nil
}

// Cancel closes the confirmation step and returns to Idle. The buffer and
// all messages are discarded. Responses to calls still in flight are dropped
// when they arrive. The registered address stays pending at the provider.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.state = Idle
	s.resending = false
	s.errMsg = ""
	s.notice = ""
	s.attempts = 0
	s.result = nil
	s.buffer.Reset()
}

// CanSubmit reports whether the manual submit control should be enabled.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

// Result returns the session issued on successful verification.
func (s *Session) Result() (*checkin.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.state == Verified && s.result != nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:     s.state,
		Resending: s.resending,
		Email:     s.email,
		Error:     s.errMsg,
		Notice:    s.notice,
		Cells:     s.buffer.Cells(),
		Focus:     s.buffer.Focus(),
		CanSubmit: s.canSubmitLocked(),
		Attempts:  s.attempts,
	}
}

func (s *Session) canSubmitLocked() bool {
	return s.state == AwaitingCode && !s.resending && s.buffer.Complete()
}

// codeStepLocked gates every operation of the confirmation step.
func (s *Session) codeStepLocked() error {
	switch {
	case s.state == Verifying || s.resending:
		return ErrBusy
	case s.state != AwaitingCode:
		return ErrNotAwaitingCode
	default:
		return nil
	}
}

// describe maps err to its user-facing text and logs faults that are not
// the user's to fix.
func (s *Session) describe(err error, op string) string {
	msg := UserMessage(err)
	if msg == MessageUnexpected {
		s.logger.Warn().Err(err).Str("op", op).Msg("verification: provider call failed")
	}
	return msg
}
