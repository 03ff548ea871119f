/*
Package approval implements the lifecycle of a single approval session.

	Pending -> RiskChecking -> AwaitingUser -> Accepted | Rejected
	       \_________________________________/-> Superseded

Connect sessions pass through RiskChecking, which starts the reputation
check in the background while the approval UI is already presented.
SwitchChain sessions go straight to AwaitingUser.

Every session owns a Reply. The terminal transition takes the reply
function out of it, so whichever path resolves the session first (accept,
reject, forced reject, teardown or supersede) is the only one that can ever
call it. The call happens after the callback delay; the settle hooks run
right after it.

Session methods are not safe for concurrent use. They must run on the
event loop the session was created with.
*/
package approval
