// Command oneshot is a terminal client for the oneshot explanation server.
// It fetches an explanation, expands words and terms into a nested tree,
// asks follow-up questions about a selection, and requests audio or video.
package main
