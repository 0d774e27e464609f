package game

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/fzj270452746/MJSort/internal/game/core"
	"github.com/fzj270452746/MJSort/internal/game/table"
	"github.com/fzj270452746/MJSort/internal/task"
)

// maxSimulationSteps 单局最多推进的步数，正常一局远小于这个值
const maxSimulationSteps = 20000

// ScriptedPlayer 脚本玩家：有推荐组合就选中并消除，否则跳过
type ScriptedPlayer struct{}

// Act 在选牌窗口内行动一次，未处于选牌窗口时返回 false
func (ScriptedPlayer) Act(tbl *table.Table) (bool, error) {
	snap := tbl.Snapshot()
	if snap.Phase != table.PhaseAwaitingResolution || snap.Stage != table.StageSelecting {
		return false, nil
	}

	if snap.Recommended == nil {
		return true, tbl.Skip()
	}
	for _, id := range snap.Recommended.IDs() {
		if err := tbl.SelectTile(id); err != nil {
			return true, err
		}
	}
	return true, tbl.ConfirmRemoval()
}

// SimulationResult 模拟统计
type SimulationResult struct {
	Games        int `json:"games"`
	PlayerWins   int `json:"playerWins"`
	ComputerWins int `json:"computerWins"`
	Ties         int `json:"ties"`
	HandEmptied  int `json:"handEmptied"`
	TotalRounds  int `json:"totalRounds"`
}

// Simulate 用虚拟时钟离线打 games 局，事件逐行写入 w（w 为空时不输出）
func Simulate(seed int64, games int, cfg table.Config, w io.Writer) (SimulationResult, error) {
	result := SimulationResult{}
	rng := rand.New(rand.NewSource(seed))
	player := ScriptedPlayer{}

	for i := 1; i <= games; i++ {
		sched := task.NewVirtualScheduler()
		sessionID := fmt.Sprintf("sim-%d", i)

		var sink table.EventSink
		if w != nil {
			sink = eventLogger(w, sessionID)
		}
		tbl := table.New(sessionID, cfg, sched, sink, table.ShuffledDecks(rng))
		if err := tbl.Start(); err != nil {
			return result, err
		}

		snap, err := playOut(tbl, sched, player)
		if err != nil {
			return result, fmt.Errorf("game %d: %w", i, err)
		}

		result.Games++
		result.TotalRounds += snap.Round
		if snap.Outcome == nil || snap.Outcome.Winner == nil {
			result.Ties++
		} else if *snap.Outcome.Winner == core.SidePlayer {
			result.PlayerWins++
		} else {
			result.ComputerWins++
		}
		if snap.Outcome != nil && snap.Outcome.Reason == core.EndHandEmptied {
			result.HandEmptied++
		}
	}

	return result, nil
}

// playOut 推进虚拟时钟直到牌局结束
func playOut(tbl *table.Table, sched *task.VirtualScheduler, player ScriptedPlayer) (table.Snapshot, error) {
	for step := 0; step < maxSimulationSteps; step++ {
		if tbl.IsGameOver() {
			return tbl.Snapshot(), nil
		}

		acted, err := player.Act(tbl)
		if err != nil {
			return table.Snapshot{}, err
		}
		if acted {
			continue
		}

		if !sched.RunNext() {
			return table.Snapshot{}, fmt.Errorf("stalled in phase %s with no pending timers", tbl.Phase())
		}
	}
	return table.Snapshot{}, fmt.Errorf("not finished after %d steps", maxSimulationSteps)
}

// eventLogger 把事件按 "<session> <kind> <json>" 逐行输出
func eventLogger(w io.Writer, sessionID string) table.EventSink {
	return table.SinkFunc(func(event table.Event) {
		payload, err := json.Marshal(event)
		if err != nil {
			payload = []byte(`{}`)
		}
		fmt.Fprintf(w, "%s %s %s\n", sessionID, event.Kind(), payload)
	})
}
