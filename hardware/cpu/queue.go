// This file is part of Gopher88.
//
// Gopher88 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher88 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher88.  If not, see <https://www.gnu.org/licenses/>.

package cpu

// QueueOp describes what happened on the queue status pins during a cycle.
type QueueOp int

// List of queue operations.
const (
	QueueIdle QueueOp = iota

	// first byte of a new instruction left the queue
	QueueFirst

	// a subsequent byte of the current instruction left the queue
	QueueSubsequent

	// the queue was flushed by a transfer of control
	QueueFlush
)

func (q QueueOp) String() string {
	switch q {
	case QueueIdle:
		return "-"
	case QueueFirst:
		return "F"
	case QueueSubsequent:
		return "S"
	case QueueFlush:
		return "E"
	}
	return "?"
}

// depth of the prefetch queue. four bytes on the 8088
const queueDepth = 4

// prefetchQueue is the 8088's four byte instruction queue. Bytes enter at
// the back when a code fetch completes and leave from the front when the
// decoder asks for them.
type prefetchQueue struct {
	data  [queueDepth]uint8
	front int
	len   int

	// queue operation for the current cycle. cleared by the BIU at the top
	// of every cycle and set by push/pop/flush
	op     QueueOp
	opByte uint8
}

func (q *prefetchQueue) push(b uint8) {
	if q.len == queueDepth {
		return
	}
	q.data[(q.front+q.len)%queueDepth] = b
	q.len++
}

func (q *prefetchQueue) pop(first bool) uint8 {
	b := q.data[q.front]
	q.front = (q.front + 1) % queueDepth
	q.len--

	if first {
		q.op = QueueFirst
	} else {
		q.op = QueueSubsequent
	}
	q.opByte = b

	return b
}

func (q *prefetchQueue) flush() {
	q.front = 0
	q.len = 0
	q.op = QueueFlush
	q.opByte = 0
}

func (q *prefetchQueue) full() bool {
	return q.len == queueDepth
}
