package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/enrollment-service/pkg/config"
)

// DynamoAPI is the part of *dynamodb.Client the store needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps courses, profiles, progress records and payment markers
// in one table:
//
//	COURSE#<id>      METADATA          course
//	COURSE#<id>      PROGRESS#<user>   progress record (GSI1: USER#<user>)
//	USER#<id>        PROFILE           user profile
//	PAYMENT#<order>  METADATA          payment marker (GSI1: USER#<user>)
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

func courseKey(courseID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "COURSE#" + courseID},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#" + userID},
		"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
	}
}

func progressKey(courseID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "COURSE#" + courseID},
		"SK": &types.AttributeValueMemberS{Value: "PROGRESS#" + userID},
	}
}

func paymentKey(orderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "PAYMENT#" + orderID},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

func (r *DynamoStore) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	var course domain.Course
	if err := r.getItem(ctx, courseKey(courseID), &course); err != nil {
		if errors.Is(err, errItemNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course %s: %w", courseID, err)
	}
	return &course, nil
}

func (r *DynamoStore) PutCourse(ctx context.Context, course *domain.Course) error {
	return r.putItem(ctx, courseKey(course.CourseID), course, nil)
}

// AddStudent adds userID to the course's enrolled set. The set type makes a
// repeated add a no-op.
func (r *DynamoStore) AddStudent(ctx context.Context, courseID, userID string) (*domain.Course, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 courseKey(courseID),
		UpdateExpression:    aws.String("ADD students_enrolled :student"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":student": &types.AttributeValueMemberSS{Value: []string{userID}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to enroll student in course %s: %w", courseID, err)
	}

	var course domain.Course
	if err := attributevalue.UnmarshalMap(out.Attributes, &course); err != nil {
		return nil, fmt.Errorf("failed to unmarshal course: %w", err)
	}
	return &course, nil
}

func (r *DynamoStore) GetUser(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var user domain.UserProfile
	if err := r.getItem(ctx, userKey(userID), &user); err != nil {
		if errors.Is(err, errItemNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return &user, nil
}

func (r *DynamoStore) PutUser(ctx context.Context, user *domain.UserProfile) error {
	return r.putItem(ctx, userKey(user.UserID), user, nil)
}

func (r *DynamoStore) AddCourseToProfile(ctx context.Context, userID, courseID, progressID string) (*domain.UserProfile, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 userKey(userID),
		UpdateExpression:    aws.String("ADD courses :course, course_progress :progress"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":course":   &types.AttributeValueMemberSS{Value: []string{courseID}},
			":progress": &types.AttributeValueMemberSS{Value: []string{progressID}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile %s: %w", userID, err)
	}

	var user domain.UserProfile
	if err := attributevalue.UnmarshalMap(out.Attributes, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// CreateProgress creates an empty progress record for (course, user), or
// returns the existing one.
func (r *DynamoStore) CreateProgress(ctx context.Context, courseID, userID string) (*domain.ProgressRecord, error) {
	progress := newProgress(courseID, userID, r.now())
	extra := map[string]types.AttributeValue{
		"GSI1PK": &types.AttributeValueMemberS{Value: "USER#" + userID},
		"GSI1SK": &types.AttributeValueMemberS{Value: "PROGRESS#" + courseID},
	}

	err := r.putItemIfAbsent(ctx, progressKey(courseID, userID), progress, extra)
	if err == nil {
		return progress, nil
	}
	if !isConditionFailed(err) {
		return nil, fmt.Errorf("failed to create progress for course %s: %w", courseID, err)
	}
	return r.GetProgress(ctx, courseID, userID)
}

func (r *DynamoStore) GetProgress(ctx context.Context, courseID, userID string) (*domain.ProgressRecord, error) {
	var progress domain.ProgressRecord
	if err := r.getItem(ctx, progressKey(courseID, userID), &progress); err != nil {
		if errors.Is(err, errItemNotFound) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

// ClaimPayment stores rec unless a marker for the same gateway order exists.
// On conflict it returns the stored marker with ErrPaymentAlreadyClaimed.
func (r *DynamoStore) ClaimPayment(ctx context.Context, rec domain.PaymentRecord) (*domain.PaymentRecord, error) {
	now := r.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	extra := map[string]types.AttributeValue{
		"GSI1PK": &types.AttributeValueMemberS{Value: "USER#" + rec.UserID},
		"GSI1SK": &types.AttributeValueMemberS{Value: "PAYMENT#" + now.Format("2006-01-02T15:04:05Z")},
	}

	err := r.putItemIfAbsent(ctx, paymentKey(rec.OrderID), &rec, extra)
	if err == nil {
		return &rec, nil
	}
	if !isConditionFailed(err) {
		return nil, fmt.Errorf("failed to claim payment %s: %w", rec.OrderID, err)
	}

	var existing domain.PaymentRecord
	if err := r.getItem(ctx, paymentKey(rec.OrderID), &existing); err != nil {
		return nil, fmt.Errorf("failed to read claimed payment %s: %w", rec.OrderID, err)
	}
	return &existing, ErrPaymentAlreadyClaimed
}

func (r *DynamoStore) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 paymentKey(orderID),
		UpdateExpression:    aws.String("SET #status = :status, updated_at = :updated"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":updated": &types.AttributeValueMemberS{Value: r.now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to update payment %s: %w", orderID, err)
	}
	return nil
}

func (r *DynamoStore) GetPayment(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	if err := r.getItem(ctx, paymentKey(orderID), &rec); err != nil {
		if errors.Is(err, errItemNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", orderID, err)
	}
	return &rec, nil
}

var errItemNotFound = errors.New("item not found")

func (r *DynamoStore) getItem(ctx context.Context, key map[string]types.AttributeValue, out any) error {
	resp, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if len(resp.Item) == 0 {
		return errItemNotFound
	}
	return attributevalue.UnmarshalMap(resp.Item, out)
}

func (r *DynamoStore) putItem(ctx context.Context, key map[string]types.AttributeValue, item any, condition *string) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	for k, v := range key {
		av[k] = v
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: condition,
	})
	return err
}

func (r *DynamoStore) putItemIfAbsent(ctx context.Context, key map[string]types.AttributeValue, item any, extra map[string]types.AttributeValue) error {
	merged := make(map[string]types.AttributeValue, len(key)+len(extra))
	for k, v := range key {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return r.putItem(ctx, merged, item, aws.String("attribute_not_exists(PK)"))
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
