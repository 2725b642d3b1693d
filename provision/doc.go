// Package provision is the server-side account provisioning function.
//
// It sits behind its own trust boundary and holds the provider's admin
// credentials. Every registration is re-validated regardless of what the
// client checked, in a fixed order: email, password, first name presence,
// first name format, last name presence, last name format. The first
// failing check answers 400 with its message.
package provision
