// Package anyrollout stores the rollouts of many parallel
// environments for on-policy training, computes
// Generalized Advantage Estimates over the horizon, and
// serves the flattened samples as minibatches.
// See https://arxiv.org/abs/1506.02438 for GAE.
package anyrollout
