package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/clinicauth/internal/application"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

type otpFixture struct {
	clock    *clock
	accounts *mockAccountStore
	ledger   *mockLedger
	notifier *mockNotifier
	signer   *mockSigner
	issuer   *application.IssuanceService
	verifier *application.VerificationService
}

func newOTPFixture(accounts ...model.Account) *otpFixture {
	f := &otpFixture{
		clock:    newClock(),
		accounts: newMockAccountStore(accounts...),
		ledger:   newMockLedger(),
		notifier: &mockNotifier{},
		signer:   newMockSigner(),
	}
	f.issuer = application.NewIssuanceService(f.accounts, f.ledger, f.notifier).WithClock(f.clock.Now)
	f.verifier = application.NewVerificationService(f.accounts, f.ledger, f.signer).WithClock(f.clock.Now)
	return f
}

func (f *otpFixture) request(t *testing.T, email string, signUp bool) string {
	t.Helper()
	err := f.issuer.RequestOTP(context.Background(), application.OTPRequest{Email: email, IsSignUp: signUp})
	require.NoError(t, err)
	return f.notifier.lastCode()
}

func TestVerifyOTP_SignUpCreatesVerifiedAccount(t *testing.T) {
	f := newOTPFixture()
	code := f.request(t, "a@x.com", true)

	session, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{
		Email:       "a@x.com",
		Code:        code,
		DisplayName: "Asha",
		IsSignUp:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, session)

	account, err := f.accounts.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "Asha", account.DisplayName)
	assert.True(t, account.IsVerified())
	assert.Equal(t, f.clock.Now(), account.VerifiedAt)
	assert.Equal(t, account.ID, session.AccountID)

	_, pending := f.ledger.entry("a@x.com")
	assert.False(t, pending, "a verified code must be removed")

	// Replaying the same code fails: codes are single use.
	_, err = f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "a@x.com", Code: code, IsSignUp: true})
	require.ErrorIs(t, err, application.ErrOTPExpiredOrInvalid)
	assert.Equal(t, 1, f.accounts.count())
}

func TestVerifyOTP_LoginExpiredCode(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)

	f.clock.Advance(10*time.Minute + time.Second)

	_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
	require.ErrorIs(t, err, application.ErrOTPExpiredOrInvalid)
	assert.NotErrorIs(t, err, application.ErrOTPInvalid)

	_, pending := f.ledger.entry("b@x.com")
	assert.False(t, pending, "an expired entry is discarded when read")
}

func TestVerifyOTP_ValidAtExactExpiry(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)

	f.clock.Advance(model.OTPTTL)

	session, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
	require.NoError(t, err)
	assert.Equal(t, "acct-b", session.AccountID)
}

func TestVerifyOTP_WrongCodeKeepsEntry(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: wrong})
	require.ErrorIs(t, err, application.ErrOTPInvalid)
	assert.Equal(t, application.KindOTPInvalid, application.KindOf(err))

	_, pending := f.ledger.entry("b@x.com")
	assert.True(t, pending, "a wrong code must not burn the entry")

	_, err = f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
	require.NoError(t, err)
}

func TestVerifyOTP_ReissuedCodeSupersedesFirst(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	first := f.request(t, "b@x.com", false)
	second := f.request(t, "b@x.com", false)
	if first == second {
		t.Skip("both draws produced the same code")
	}

	_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: first})
	require.ErrorIs(t, err, application.ErrOTPInvalid)

	_, err = f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: second})
	require.NoError(t, err)
}

func TestVerifyOTP_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		cred    model.OTPCredential
		wantErr error
	}{
		{"missing email", model.OTPCredential{Code: "123456"}, application.ErrCredentialsRequired},
		{"missing code", model.OTPCredential{Email: "a@x.com"}, application.ErrCredentialsRequired},
		{"blank code", model.OTPCredential{Email: "a@x.com", Code: "  "}, application.ErrCredentialsRequired},
		{"no outstanding code", model.OTPCredential{Email: "a@x.com", Code: "123456"}, application.ErrOTPExpiredOrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOTPFixture()
			_, err := f.verifier.VerifyOTP(context.Background(), tt.cred)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyOTP_LoginForDeletedAccount(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)

	delete(f.accounts.byEmail, "b@x.com")

	_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
	require.ErrorIs(t, err, application.ErrAccountNotFound)
}

func TestVerifyOTP_SignUpRaceReusesAccount(t *testing.T) {
	f := newOTPFixture()
	code := f.request(t, "a@x.com", true)

	// Another sign-up for the same email lands between the lookup and the insert.
	f.accounts.byEmail["a@x.com"] = model.Account{ID: "acct-other", Email: "a@x.com"}

	session, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "a@x.com", Code: code, IsSignUp: true})
	require.NoError(t, err)
	assert.Equal(t, "acct-other", session.AccountID)
}

func TestVerifyOTP_ConcurrentSubmissionsSucceedOnce(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)

	const attempts = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestVerifyOTP_SignerFailure(t *testing.T) {
	f := newOTPFixture(model.Account{ID: "acct-b", Email: "b@x.com"})
	code := f.request(t, "b@x.com", false)
	f.signer.err = errBoom

	_, err := f.verifier.VerifyOTP(context.Background(), model.OTPCredential{Email: "b@x.com", Code: code})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, application.KindUnexpected, application.KindOf(err))
}
