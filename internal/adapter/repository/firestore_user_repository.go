package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketplace/internal/domain/entity"
	"marketplace/internal/domain/repository"
	"marketplace/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) users() *firestore.CollectionRef {
	return r.client.Collection(usersCollection)
}

func (r *firestoreUserRepository) keyRef(field, value string) *firestore.DocumentRef {
	return r.client.Collection(uniqueKeysCollection).Doc(uniqueKeyID(field, value))
}

// reserved reports whether a reservation document exists, inside tx.
func reserved(tx *firestore.Transaction, ref *firestore.DocumentRef) (bool, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return snap.Exists(), nil
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	usernameRef := r.keyRef("username", strings.ToLower(user.Username))
	emailRef := r.keyRef("email", strings.ToLower(user.Email))
	codeRef := r.keyRef("referralCode", user.ReferralCode)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		checks := []struct {
			ref *firestore.DocumentRef
			err error
		}{
			{usernameRef, errors.Conflict("Username already exists")},
			{emailRef, errors.Conflict("Email already exists")},
			{codeRef, errors.ReferralCodeTaken()},
		}
		for _, check := range checks {
			taken, err := reserved(tx, check.ref)
			if err != nil {
				return err
			}
			if taken {
				return check.err
			}
		}

		var referrerRef *firestore.DocumentRef
		if user.ReferrerID != "" {
			referrerRef = r.users().Doc(user.ReferrerID)
			if _, err := tx.Get(referrerRef); err != nil {
				if isNotFound(err) {
					return errors.NotFound("Referrer", err)
				}
				return err
			}
		}

		owner := map[string]interface{}{"userId": user.ID}
		if err := tx.Create(usernameRef, owner); err != nil {
			return err
		}
		if err := tx.Create(emailRef, owner); err != nil {
			return err
		}
		if err := tx.Create(codeRef, owner); err != nil {
			return err
		}
		if err := tx.Create(r.users().Doc(user.ID), user); err != nil {
			return err
		}
		if referrerRef != nil {
			return tx.Update(referrerRef, []firestore.Update{
				{Path: "totalReferrals", Value: firestore.Increment(1)},
				{Path: "updatedAt", Value: now},
			})
		}
		return nil
	})

	return firestoreError("User", "Failed to create user", err)
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, firestoreError("User", "Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &user, nil
}

func (r *firestoreUserRepository) findOne(ctx context.Context, field string, value interface{}) (*entity.User, error) {
	iter := r.users().Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.Internal("Failed to query user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *firestoreUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *firestoreUserRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return r.findOne(ctx, "referralCode", code)
}

func (r *firestoreUserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	doc, err := r.keyRef("referralCode", code).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Internal("Failed to check referral code", err)
	}
	return doc.Exists(), nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()
	userRef := r.users().Doc(user.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil {
			return err
		}
		var current entity.User
		if err := snap.DataTo(&current); err != nil {
			return err
		}

		type swap struct {
			field, oldValue, newValue string
			conflict                  error
		}
		swaps := []swap{
			{"username", strings.ToLower(current.Username), strings.ToLower(user.Username), errors.Conflict("Username already exists")},
			{"email", strings.ToLower(current.Email), strings.ToLower(user.Email), errors.Conflict("Email already exists")},
		}

		var pending []swap
		for _, s := range swaps {
			if s.oldValue == s.newValue {
				continue
			}
			taken, err := reserved(tx, r.keyRef(s.field, s.newValue))
			if err != nil {
				return err
			}
			if taken {
				return s.conflict
			}
			pending = append(pending, s)
		}

		for _, s := range pending {
			if err := tx.Delete(r.keyRef(s.field, s.oldValue)); err != nil {
				return err
			}
			if err := tx.Create(r.keyRef(s.field, s.newValue), map[string]interface{}{"userId": user.ID}); err != nil {
				return err
			}
		}

		return tx.Update(userRef, []firestore.Update{
			{Path: "username", Value: user.Username},
			{Path: "email", Value: user.Email},
			{Path: "fullName", Value: user.FullName},
			{Path: "role", Value: user.Role},
			{Path: "updatedAt", Value: user.UpdatedAt},
		})
	})

	return firestoreError("User", "Failed to update user", err)
}

func (r *firestoreUserRepository) Delete(ctx context.Context, id string) error {
	userRef := r.users().Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(userRef)
		if err != nil {
			return err
		}
		var user entity.User
		if err := snap.DataTo(&user); err != nil {
			return err
		}

		for _, ref := range []*firestore.DocumentRef{
			r.keyRef("username", strings.ToLower(user.Username)),
			r.keyRef("email", strings.ToLower(user.Email)),
			r.keyRef("referralCode", user.ReferralCode),
		} {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		return tx.Delete(userRef)
	})

	return firestoreError("User", "Failed to delete user", err)
}

func (r *firestoreUserRepository) collect(iter *firestore.DocumentIterator) ([]*entity.User, error) {
	defer iter.Stop()

	users := []*entity.User{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, nil
}

func (r *firestoreUserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int64, error) {
	countDocs, err := r.users().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count users", err)
	}
	total := int64(len(countDocs))

	query := r.users().OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	users, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list users", err)
	}
	return users, total, nil
}

func (r *firestoreUserRepository) ListReferrals(ctx context.Context, referrerID string, limit int) ([]*entity.User, error) {
	query := r.users().Where("referrerId", "==", referrerID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	users, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list referrals", err)
	}
	return users, nil
}

func (r *firestoreUserRepository) CountReferrals(ctx context.Context, referrerID string) (int64, error) {
	docs, err := r.users().Where("referrerId", "==", referrerID).Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to count referrals", err)
	}
	return int64(len(docs)), nil
}

func (r *firestoreUserRepository) ReferralTotals(ctx context.Context, top int) (*repository.ReferralTotals, error) {
	users, err := r.collect(r.users().Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to load users", err)
	}

	totals := &repository.ReferralTotals{TotalUsers: int64(len(users))}
	var referrers []*entity.User
	for _, u := range users {
		if u.ReferrerID != "" {
			totals.TotalReferrals++
		}
		if u.TotalReferrals > 0 {
			totals.ActiveReferrers++
			referrers = append(referrers, u)
		}
	}

	sort.SliceStable(referrers, func(i, j int) bool {
		if referrers[i].TotalReferrals != referrers[j].TotalReferrals {
			return referrers[i].TotalReferrals > referrers[j].TotalReferrals
		}
		return referrers[i].CreatedAt.Before(referrers[j].CreatedAt)
	})
	if len(referrers) > top {
		referrers = referrers[:top]
	}
	totals.TopReferrers = referrers
	return totals, nil
}
