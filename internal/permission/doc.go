// Package permission implements the tool gateway's fixed permission-class
// table: every tool belongs to exactly one of Read, Write, Execute, or
// GitWrite, independent of its argument contents. Read is always allowed.
// Write and Execute ask for confirmation when the session's sandbox policy
// is interactive. GitWrite always asks.
//
//	checker := permission.NewChecker(confirmFunc)
//	err := checker.Check(ctx, permission.Request{
//		SessionID: sessionID,
//		Class:     permission.ClassForTool("bash"),
//		Title:     "run `go test ./...`",
//	}, sandboxPolicy)
package permission
