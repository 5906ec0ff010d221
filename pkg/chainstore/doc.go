// Package chainstore persists markov.Model transition tables in SQLite.
//
// Several named models share one vocabulary and one prefix table; each model
// owns its own rows in markov_chains. Saving a model adds its counts to the
// stored ones, so repeated runs over new input keep growing the same model.
// The package only depends on database/sql; the caller picks the driver.
package chainstore
