package main

// Intents are requests from connection goroutines, applied by Game.Run
// between ticks. Each carries the connection id, which is also the player id.

type attachIntent struct {
	ID  string
	Out Broadcaster
}

// detachIntent removes the connection and its player in one step
type detachIntent struct {
	ID string
}

// loginIntent is submitted after credentials were checked on the connection
type loginIntent struct {
	ID        string
	Username  string
	AccountID int64
	Token     string
}

type moveIntent struct {
	ID  string
	Msg MoveMsg
}

type rotateIntent struct {
	ID    string
	Angle float64
}

type shootIntent struct {
	ID  string
	Msg ShootMsg
}

type pauseIntent struct {
	ID     string
	Paused bool
}

type dimensionsIntent struct {
	ID            string
	Width, Height float64
}

type collectIntent struct {
	ID       string
	PickupID string
}

type pingIntent struct {
	ID string
}
