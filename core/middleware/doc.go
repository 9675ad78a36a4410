// Package middleware groups the Fiber middleware used by the ops API:
// request ray_id assignment (rayid) and static API key auth (auth).
package middleware
