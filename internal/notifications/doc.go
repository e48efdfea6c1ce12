// Package notifications delivers run outcomes via ntfy.
//
// NewService returns a no-op when notifications.ntfy_topic is empty, so the
// workflow can publish unconditionally. Events are rendered into a title,
// message, tags, and priority before a single POST to the topic URL.
package notifications
