// Package profile defines the deployments the bridge can run.
//
// A Profile is a channel layout, the sources it polls and a pure Mapper that
// turns this tick's samples into channel targets. Profiles are looked up by
// name; the control loop does not know which one it is running.
package profile
