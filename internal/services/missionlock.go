package services

import "sync"

var (
	missionLocks   = make(map[uint]*sync.Mutex)
	missionLocksMu sync.Mutex
)

// lockForMission returns the mutex serializing admission decisions for one
// mission. Holding it across the count-then-write transaction closes the race
// where two concurrent approvals both observe a free slot.
//
// This is a process-local lock: it is only correct for single-process
// deployments. Running multiple replicas against one database requires
// replacing it with a row lock on the mission (SELECT ... FOR UPDATE).
func lockForMission(missionID uint) *sync.Mutex {
	missionLocksMu.Lock()
	defer missionLocksMu.Unlock()

	mu, exists := missionLocks[missionID]

	if !exists {
		mu = &sync.Mutex{}
		missionLocks[missionID] = mu
	}

	return mu
}
