// Package api holds the core types shared by the deskflow engine, the step
// runner, and external callers: conversations, proposed actions, outcomes,
// step definitions, validators, observers, and the summary/progress types
// returned to callers.
//
// External users normally import the root deskflow package, which re-exports
// everything here.
package api
