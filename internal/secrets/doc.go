// Package secrets redacts credentials and student identifiers from chat
// text before it is embedded, sent to a chat model, or logged.
//
// Two detectors run over every input: a small set of regular expression
// rules for campus identifiers (student PIDs, email addresses, phone
// numbers) and the gitleaks default rule set for credentials that users
// occasionally paste into a question.
package secrets
