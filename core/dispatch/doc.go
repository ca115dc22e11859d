// Package dispatch implements merit-order economic dispatch.
//
// An Order collects always-on producers, consumers and dispatchables over a
// fixed horizon of hourly frames. The Engine walks every frame, subtracts
// always-on production from demand, and loads dispatchables in their stored
// order until the residual is covered. The unit covering the last part of the
// residual is the price setter for that frame. A frame without a price setter
// had unmet demand, with every dispatchable loaded at total capacity.
package dispatch
