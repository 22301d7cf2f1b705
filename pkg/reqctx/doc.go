// Package reqctx carries request-scoped metadata through context.Context.
//
// HTTP middleware sets RequestMeta for every request. Services read it only
// for logging; the acting principal is always passed explicitly.
package reqctx
