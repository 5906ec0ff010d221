/*
Package markov provides an in-memory Markov chain text model for Go.

A Model records, for every context of the last Order tokens, how often each
token followed it, including the synthetic Start-Of-Chain and End-Of-Chain
boundaries around every fed line. Generation walks the table from the start
context, drawing each next token in proportion to its observed count, until
an End-Of-Chain token is drawn.

Training is line oriented: Train and TrainParallel read an io.Reader one
line at a time and split each line with a Tokenizer. Models can be merged,
exported to JSON and imported again, and persisted with package chainstore.
*/
package markov
