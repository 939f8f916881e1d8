// Package harness runs Simon game scenarios written in YAML.
//
// A scenario scripts the random draws, then drives a Game step by step on a
// virtual clock: start, press, advance, settle. Each step may state what the
// game must look like afterwards, and trace assertions check the journal
// the run produced. Nothing sleeps; a scenario that covers a minute of play
// runs in microseconds and produces the same journal every time.
//
// Example scenario:
//
//	name: scenario_a
//	description: full match on a one element sequence
//	signals: 4
//	draws: [2, 1]
//	steps:
//	  - do: start
//	    expect: {status: playing, score: 0, sequence: [2]}
//	  - do: settle
//	    expect: {status: awaiting_input}
//	  - do: press
//	    signal: 2
//	    expect: {outcome: round_complete, score: 1, sequence: [2, 1], status: playing}
//	assertions:
//	  - type: trace_count
//	    entry: "mark_ok 2"
//	    count: 1
//
// Golden journals live in testdata/golden/<name>.golden; regenerate them with
//
//	go test ./internal/harness -update
package harness
