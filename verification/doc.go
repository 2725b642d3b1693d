// Package verification is the signup confirmation flow of the check-in
// client.
//
// A [Session] moves through Idle, Submitting, AwaitingCode, Verifying and
// Verified. Resending is a flag that can only be raised from AwaitingCode.
// Code entry goes through an [otp.Buffer]; completing it by typing or
// pasting submits the code without a separate call.
//
// Errors shown to the user follow one rule, implemented by [UserMessage]:
// validation and provider messages are shown verbatim, everything else,
// timeouts included, becomes "An unexpected error occurred".
package verification
