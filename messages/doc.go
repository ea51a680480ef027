// Package messages implements session-backed flash messages and
// response-mapping middleware.
//
// The Manager middleware loads the session's message queue into the request
// context and writes it back, then clears it, right before the response
// headers leave the process. Handlers append with FromCtx(c).Info(...) and
// read with FromCtx(c).Consume(). MapResponse buffers the handler's response
// and runs an ordered list of ResponseMappers over it; ErrorPage and
// RenderPage rewrite the body only when the handler attached the matching
// Annotation.
//
// Install order matters: Sessions, then Manager, then MapResponse.
//
//	a.Use(
//		session.Sessions(session.Config{}),
//		messages.Manager(messages.ManagerConfig{}),
//		messages.MapResponse(messages.ErrorPage(), messages.RenderPage()),
//	)
package messages
