package authlog

import "regexp"

const (
	idxUsername = "Username"
	idxSource   = "Source"
	idxInvalid  = "Invalid"
)

var (
	// failedPasswordRE matches the sshd failed password log message,
	// with the optional "invalid user " qualifier that sshd inserts
	// when the named user does not exist.
	//
	// From auth.c:
	//
	//	do_log2(level, "%s %s%s%s for %s%.100s from %.200s port %d ssh2%s%s"
	//	    authmsg,
	//	    method,
	//	    ...
	//	    authctxt->valid ? "" : "invalid user ",
	//	    authctxt->user,
	//	    ssh_remote_ipaddr(ssh),
	//	    ...
	failedPasswordRE = regexp.MustCompile(
		`Failed password for (?P<Invalid>invalid user )?(?P<Username>\S+) from (?P<Source>\d{1,3}(?:\.\d{1,3}){3})`)

	// invalidUserRE matches the sshd invalid user log message.
	//
	// From auth.c:
	//
	//	logit("Invalid user %.100s from %.100s port %d",
	//	    user, ssh_remote_ipaddr(ssh), ssh_remote_port(ssh));
	invalidUserRE = regexp.MustCompile(
		`Invalid user (?P<Username>\S+) from (?P<Source>\d{1,3}(?:\.\d{1,3}){3})`)

	// pamAuthFailureRE matches the pam_unix authentication failure
	// message, case-insensitively. The rhost= token accepts hostnames,
	// not just dotted-quad addresses, so the Source capture may not be
	// an IP literal.
	//
	// Example:
	//
	//	pam_unix(sshd:auth): authentication failure; logname= uid=0 euid=0 tty=ssh ruser= rhost=203.0.113.5 user=admin
	pamAuthFailureRE = regexp.MustCompile(
		`(?i)authentication failure;.*?rhost=(?P<Source>[\w.-]+?)\s+user=(?P<Username>\S+)`)
)
