// Package mcp serves the course assistant and the lecture board as MCP
// tools over stdio.
//
// Two tools are registered: ask_courses answers a question through the
// assistant pipeline and live_lectures lists lectures through the same
// view state the board and HTTP API use.
package mcp
