/*
Package workqueue provides a bounded buffer that hands work from a scheduling phase to a
parallel execution phase.

A cycle runs through these states:

	Idle      both cursors at 0
	Filling   producers claim slots through a Writer
	Draining  consumers take the filled slots through a Reader
	Reset     Update moves the cursors back to 0, single-threaded

Producers may overshoot the write cursor past the capacity, their claims fail and the work has
to be queued again in a later cycle. The number of readable slots is therefore
min(capacity, write cursor), never the raw cursor.

Every successful claim carries a reference id from a counter that never returns 0, so 0 always
means "nothing claimed".
*/
package workqueue
