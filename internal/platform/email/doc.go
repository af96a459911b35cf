// Package email delivers HTML mail over SMTP and renders the notification
// and weekly report templates sent through it.
package email
