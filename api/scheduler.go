/*
scheduler.go - Automated year-end rollover scheduler

PURPOSE:
  Periodically checks whether any balance still needs its year-end
  rollover (carry-forward into the new year plus finalized accrual) and
  processes the ones that do.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only acts once the previous calendar year has ended
  - Skips (employee, leaveType) pairs already rolled over
  - Records rollover runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover)
  - leave/service.go: Rollover
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// RolloverScheduler handles automated year-end rollover.
type RolloverScheduler struct {
	Store         *sqlite.Store
	Service       *leave.Service
	CheckInterval time.Duration
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRolloverScheduler creates a new scheduler.
func NewRolloverScheduler(store *sqlite.Store, service *leave.Service) *RolloverScheduler {
	return &RolloverScheduler{
		Store:         store,
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		now:           time.Now,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *RolloverScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloverScheduler) checkAndProcess() {
	ctx := context.Background()
	now := rs.now().UTC()
	fromYear := now.Year() - 1

	log.Printf("[Scheduler] Checking for pending rollovers at %v", now)

	employees, err := rs.Store.ListEmployees(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing employees: %v", err)
		return
	}

	processedCount := 0
	skippedCount := 0

	for _, emp := range employees {
		for _, lt := range leave.BalanceLeaveTypes {
			alreadyDone, err := rs.Store.IsRolloverComplete(ctx, emp.ID, lt, fromYear)
			if err != nil {
				log.Printf("[Scheduler] Error checking rollover status: %v", err)
				continue
			}
			if alreadyDone {
				skippedCount++
				continue
			}

			if err := rs.processRollover(ctx, emp.ID, lt, fromYear); err != nil {
				log.Printf("[Scheduler] Error processing rollover for %s/%s: %v", emp.ID, lt, err)
			} else {
				processedCount++
			}
		}
	}

	if processedCount > 0 || skippedCount > 0 {
		log.Printf("[Scheduler] Completed: %d processed, %d skipped (already done)", processedCount, skippedCount)
	}
}

func (rs *RolloverScheduler) processRollover(ctx context.Context, employeeID string, lt leave.LeaveType, fromYear int) error {
	startTime := rs.now().UTC()

	run := sqlite.RolloverRun{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		LeaveType:  lt,
		FromYear:   fromYear,
		Status:     "running",
		StartedAt:  startTime,
	}
	if err := rs.Store.SaveRolloverRun(ctx, run); err != nil {
		return err
	}

	err := rs.Service.Rollover(ctx, employeeID, lt, fromYear, leave.EndOfYear(fromYear))

	completedTime := rs.now().UTC()
	run.CompletedAt = &completedTime
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
		rs.Store.SaveRolloverRun(ctx, run)
		return err
	}

	run.Status = "completed"
	if err := rs.Store.SaveRolloverRun(ctx, run); err != nil {
		return err
	}

	log.Printf("[Scheduler] Rolled over %s/%s from %d", employeeID, lt, fromYear)
	return nil
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *RolloverScheduler) RunNow() {
	rs.checkAndProcess()
}
