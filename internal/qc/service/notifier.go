package service

import (
	"context"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/entity"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/shared/feishu"
	"go.uber.org/zap"
)

// CardSender 发送飞书消息卡片
type CardSender interface {
	SendCard(ctx context.Context, chatID string, card feishu.InteractiveCard) (string, error)
}

// FeishuNotifier 向QC群发送不合格卡片
type FeishuNotifier struct {
	sender    CardSender
	chatID    string
	detailURL string
	logger    *zap.Logger
}

func NewFeishuNotifier(sender CardSender, chatID string, logger *zap.Logger) *FeishuNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeishuNotifier{sender: sender, chatID: chatID, logger: logger}
}

// WithDetailURL 报告详情页前缀，卡片按钮跳转 {prefix}/{id}
func (n *FeishuNotifier) WithDetailURL(prefix string) *FeishuNotifier {
	n.detailURL = prefix
	return n
}

func (n *FeishuNotifier) NotifyReportFailed(ctx context.Context, report *entity.InspectionReport) {
	data := feishu.InspectionCardData{
		ReportID:   report.ID,
		ReportType: report.ReportType,
		OrderNo:    report.OrderNo,
		Color:      report.Color,
		Buyer:      report.Buyer,
		Inspector:  report.InspectorID,
		WashStage:  report.WashStage,
	}
	if s := report.OverallSummary; s != nil {
		data.PassRate = s.PassRate
		data.DefectResult = s.DefectResult
		data.DefectRate = s.DefectRate
	}
	if n.detailURL != "" {
		data.DetailURL = n.detailURL + "/" + report.ID
	}

	msgID, err := n.sender.SendCard(ctx, n.chatID, feishu.NewInspectionFailedCard(data))
	if err != nil {
		n.logger.Warn("feishu notify failed", zap.String("report_id", report.ID), zap.Error(err))
		return
	}
	n.logger.Info("feishu notify sent", zap.String("report_id", report.ID), zap.String("message_id", msgID))
}
